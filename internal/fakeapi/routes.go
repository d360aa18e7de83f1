package fakeapi

import "github.com/gofiber/fiber/v2"

func AddRoutes(router fiber.Router, s *Server) {
	router.Post("/upload/:filename", s.counted("upload", s.UploadHandler))

	parts := router.Group("/upload-part")
	parts.Post("/init/:key", s.counted("init", s.InitHandler))
	parts.Put("/put/:key/:uploadId", s.counted("put", s.PutPartHandler))
	parts.Post("/finish/:key/:uploadId", s.counted("finish", s.FinishHandler))
}

func (s *Server) counted(route string, next fiber.Handler) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		s.record(route)
		if ctx.Get(fiber.HeaderAuthorization) != "Bearer "+s.token {
			return ctx.Status(fiber.StatusUnauthorized).SendString("unauthorized")
		}
		return next(ctx)
	}
}
