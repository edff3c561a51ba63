package routes

import (
	"github.com/go-chi/chi/v5"
	"postboard/internal/handlers"
	"postboard/internal/middleware"
)

func RegisterAuthRoutes(router chi.Router, d Deps) {
	authHandler := handlers.NewAuthHandler(d.Users, d.Tokens, d.Logger)
	resetHandler := handlers.NewPasswordResetHandler(
		d.Users,
		d.Tokens,
		d.Mailer,
		d.Logger,
		d.Config.ResetPassURL,
		d.Config.AuthReturnResetLink,
	)

	router.Post("/registerUser", authHandler.Register)
	router.Post("/loginUser", authHandler.Login)
	router.With(middleware.BearerSession(d.Tokens)).Post("/userData", authHandler.UserData)

	router.Post("/forgotPassword", resetHandler.ForgotPassword)
	router.Get("/resetPassword/{id}/{token}", resetHandler.ShowResetForm)
	router.Post("/resetPassword/{id}/{token}", resetHandler.ResetPassword)
}
