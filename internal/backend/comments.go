package backend

import (
	"context"
	"net/http"
	"net/url"
)

// CommentRecord is a comment as the backend stores it, replies nested.
type CommentRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Comment   string          `json:"comment"`
	Star      int             `json:"star"`
	ParentID  string          `json:"parentId,omitempty"`
	CreatedAt string          `json:"createdAt"`
	User      *CommentAuthor  `json:"User,omitempty"`
	Replies   []CommentRecord `json:"replay_comment,omitempty"`
}

type CommentAuthor struct {
	ID       string `json:"id"`
	UserName string `json:"userName"`
}

type CommentInput struct {
	ProductID string `json:"productId"`
	Comment   string `json:"comment"`
	Star      int    `json:"star"`
}

func (c *Client) Comments(ctx context.Context, productID string) ([]CommentRecord, error) {
	var out []CommentRecord
	err := c.do(ctx, call{method: http.MethodGet, path: "/comment/getcomment/" + url.PathEscape(productID)}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateComment(ctx context.Context, token string, in CommentInput) error {
	return c.do(ctx, call{method: http.MethodPost, path: "/comment/create", token: token, body: in}, nil)
}

func (c *Client) UpdateComment(ctx context.Context, token, commentID string, in CommentInput) error {
	return c.do(ctx, call{
		method: http.MethodPut,
		path:   "/comment/update/" + url.PathEscape(commentID),
		token:  token,
		body:   in,
	}, nil)
}

func (c *Client) DeleteComment(ctx context.Context, token, commentID string) error {
	return c.do(ctx, call{
		method: http.MethodDelete,
		path:   "/comment/comment/" + url.PathEscape(commentID),
		token:  token,
	}, nil)
}

func (c *Client) ReplyComment(ctx context.Context, token, commentID, text string) error {
	return c.do(ctx, call{
		method: http.MethodPost,
		path:   "/comment/replay",
		token:  token,
		body:   map[string]string{"commentId": commentID, "comment": text},
	}, nil)
}
