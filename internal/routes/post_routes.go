package routes

import (
	"github.com/go-chi/chi/v5"
	"postboard/internal/handlers"
)

func RegisterPostRoutes(router chi.Router, d Deps) {
	postHandler := handlers.NewPostHandler(d.Posts, d.Logger, d.Config.MaxUploadBytes)

	router.Post("/uploadPost", postHandler.UploadPost)
	router.Get("/getPost", postHandler.GetPosts)
	router.Post("/deletePost", postHandler.DeletePost)
	router.Post("/editPost", postHandler.EditPost)
}
