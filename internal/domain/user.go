package domain

type Address struct {
	ID         string `json:"id"`
	Address    string `json:"address"`
	PostalCode string `json:"postalCode"`
	ProvinceID string `json:"provinceId,omitempty"`
	CityID     string `json:"cityId,omitempty"`
}

type UserProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	LastName  string    `json:"lastName"`
	Mobile    string    `json:"mobile"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Addresses []Address `json:"address"`
}

func (u UserProfile) HasAddress(id string) bool {
	for _, a := range u.Addresses {
		if a.ID == id {
			return true
		}
	}
	return false
}

type Province struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type City struct {
	ID         string `json:"id"`
	ProvinceID string `json:"provinceId"`
	Name       string `json:"name"`
}

// CompleteInfo is the profile completion form sent to the backend.
type CompleteInfo struct {
	Name       string `json:"name"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Mobile     string `json:"mobile"`
	PostalCode string `json:"postalCode"`
	Address    string `json:"address"`
	ProvinceID string `json:"provinceId"`
	CityID     string `json:"cityId"`
}

// WhoAmI is the minimal identity returned by the backend for a bearer token.
type WhoAmI struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
}
