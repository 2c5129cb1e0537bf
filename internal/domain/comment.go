package domain

type Comment struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Text      string    `json:"comment"`
	Star      int       `json:"star"`
	CreatedAt string    `json:"createdAt"`
	Replies   []Comment `json:"replies"`
}
