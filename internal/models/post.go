package models

import (
	"encoding/base64"
	"errors"
	"strings"
	"time"
)

// Image is the embedded image sub-document of a post. Data holds the raw
// bytes; stores persist them base64-encoded next to the content type.
type Image struct {
	Data        []byte `validate:"required,min=1"`
	ContentType string `validate:"required"`
}

type Post struct {
	ID          string
	Name        string `validate:"required"`
	Description string `validate:"required"`
	Image       Image
	CreatedAt   time.Time
}

// UpdatePostRequest carries the optional fields of an edit. Nil means
// "leave unchanged".
type UpdatePostRequest struct {
	Name        *string `validate:"omitempty,min=1"`
	Description *string `validate:"omitempty,min=1"`
	Image       *Image
}

func (r *UpdatePostRequest) Empty() bool {
	return r.Name == nil && r.Description == nil && r.Image == nil
}

type DeletePostRequest struct {
	PostID string `json:"postId" validate:"required"`
}

type PostImageResponse struct {
	ContentType string `json:"contentType"`
	Data        string `json:"data"`
}

type PostResponse struct {
	ID          string            `json:"_id"`
	Name        string            `json:"pName"`
	Description string            `json:"pDescription"`
	Image       PostImageResponse `json:"image"`
}

func NewPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Image: PostImageResponse{
			ContentType: p.Image.ContentType,
			Data:        p.Image.DataURI(),
		},
	}
}

// EncodedData returns the image bytes as standard base64 text.
func (i Image) EncodedData() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

func (i Image) DataURI() string {
	return "data:" + i.ContentType + ";base64," + i.EncodedData()
}

// DecodeImage rebuilds an Image from its stored base64 form.
func DecodeImage(encoded, contentType string) (Image, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Image{}, err
	}
	return Image{Data: b, ContentType: contentType}, nil
}

var ErrInvalidDataURI = errors.New("invalid data uri")

// ParseDataURI splits a base64 data URI back into an Image.
func ParseDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	contentType, encoded, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return Image{}, ErrInvalidDataURI
	}
	return DecodeImage(encoded, contentType)
}
