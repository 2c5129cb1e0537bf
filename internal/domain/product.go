package domain

type Product struct {
	ID          string              `json:"id"`
	Code        int64               `json:"code"`
	Name        string              `json:"name"`
	Slug        string              `json:"slug"`
	IsAvailable bool                `json:"isAvailable"`
	Count       int                 `json:"count"`
	Price       int64               `json:"price"`
	Off         int64               `json:"off"`
	Description ProductDescription  `json:"description"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
	Media       []MediaItem         `json:"media_item,omitempty"`
	Categories  []CategoryOnProduct `json:"CategoriesOnProduct,omitempty"`
	Tags        []TagOnProduct      `json:"tagOnProduct,omitempty"`
	DeliveryID  *string             `json:"deliveryId,omitempty"`
	Delivery    *Delivery           `json:"Delivery,omitempty"`
	Features    []Feature           `json:"Feature,omitempty"`
}

// FinalPrice is the price after the product's discount.
func (p Product) FinalPrice() int64 {
	return DiscountedPrice(p.Price, p.Off)
}

func (p Product) Ref() ProductRef {
	return ProductRef{ID: p.ID, Name: p.Name, Price: p.FinalPrice()}
}

type ProductDescription struct {
	Text string `json:"text"`
}

type Media struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

type MediaItem struct {
	ID          string `json:"id"`
	Alt         string `json:"alt,omitempty"`
	Description string `json:"description"`
	Media       Media  `json:"media"`
}

type CategoryOnProduct struct {
	ProductID  string      `json:"productId"`
	CategoryID string      `json:"categoryId"`
	Category   CategoryRef `json:"category"`
}

type CategoryRef struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Slug     string  `json:"slug"`
	FatherID *string `json:"fatherId"`
}

type TagOnProduct struct {
	ProductID string `json:"productId"`
	TagID     string `json:"tagId"`
	Tag       Tag    `json:"tag"`
}

type Tag struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Slug  string `json:"slug,omitempty"`
}

type Delivery struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Feature struct {
	ID        string         `json:"id"`
	ProductID string         `json:"productId"`
	Feature   string         `json:"feature"`
	Values    []FeatureValue `json:"FeatureValue"`
}

type FeatureValue struct {
	ID        string `json:"id"`
	FeatureID string `json:"featureId"`
	Name      string `json:"name"`
	Rate      string `json:"rate,omitempty"`
}

// Category is a node of the hierarchical category tree.
type Category struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Slug        string          `json:"slug"`
	Description string          `json:"description,omitempty"`
	FatherID    *string         `json:"fatherId"`
	Children    []Category      `json:"children,omitempty"`
	ImageURL    string          `json:"image,omitempty"`
	MediaOnCat  []CategoryMedia `json:"mediaOnCat,omitempty"`
}

type CategoryMedia struct {
	Media Media `json:"media"`
}

func (c Category) IsRoot() bool {
	return c.FatherID == nil || *c.FatherID == ""
}
