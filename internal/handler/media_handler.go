package handler

import (
	"mime/multipart"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/mediamorph/mediamorph-backend/internal/models"
	"github.com/mediamorph/mediamorph-backend/internal/service"
	"github.com/mediamorph/mediamorph-backend/pkg/utils"
)

type MediaHandler struct {
	mediaService *service.MediaService
	userService  *service.UserService
	validator    *utils.Validator
}

func NewMediaHandler(mediaService *service.MediaService, userService *service.UserService, validator *utils.Validator) *MediaHandler {
	return &MediaHandler{
		mediaService: mediaService,
		userService:  userService,
		validator:    validator,
	}
}

// currentUser resolves the caller's account row. Authenticated callers
// without a row get a 404, mirroring the product's explicit sync step.
func (h *MediaHandler) currentUser(c *fiber.Ctx) (*models.User, error) {
	identity, ok := callerIdentity(c)
	if !ok {
		return nil, fiber.ErrUnauthorized
	}
	return h.userService.GetUserByProviderID(identity.ProviderID)
}

// formFile returns the uploaded file, or nil when the field is absent.
func formFile(c *fiber.Ctx, field string) *multipart.FileHeader {
	file, err := c.FormFile(field)
	if err != nil {
		return nil
	}
	return file
}

func (h *MediaHandler) UploadImage(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	file := formFile(c, "file")
	if file == nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("File not found"))
	}

	image, remaining, err := h.mediaService.UploadImage(c.Context(), user.ID, file,
		c.FormValue("title"), c.FormValue("description"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"image":             image,
		"credits_remaining": remaining,
	}, "Image uploaded successfully"))
}

func (h *MediaHandler) UploadVideo(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	file := formFile(c, "file")
	if file == nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("File not found"))
	}

	video, remaining, err := h.mediaService.UploadVideo(c.Context(), user.ID, file,
		c.FormValue("title"), c.FormValue("description"), c.FormValue("original_size"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"video":             video,
		"credits_remaining": remaining,
	}, "Video uploaded successfully"))
}

func (h *MediaHandler) GenerateImage(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	var req models.GenerateImageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Invalid request body"))
	}
	if err := h.validator.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse("Prompt is required"))
	}

	image, remaining, err := h.mediaService.GenerateImage(c.Context(), user.ID, req.Prompt)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"image_url":         image.SecureURL,
		"image":             image,
		"credits_remaining": remaining,
	}, "Image generated successfully"))
}

func (h *MediaHandler) TransformImage(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	image, remaining, err := h.mediaService.TransformImage(c.Context(), user.ID,
		formFile(c, "file"), c.FormValue("public_id"), c.FormValue("prompt"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"public_id":         image.PublicID,
		"secure_url":        image.SecureURL,
		"transformed_url":   image.TransformedURL,
		"credits_remaining": remaining,
	}, "Image transformed successfully"))
}

func (h *MediaHandler) GenerativeReplace(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	image, remaining, err := h.mediaService.ReplaceObject(c.Context(), user.ID,
		formFile(c, "file"), c.FormValue("from"), c.FormValue("to"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"transformed_url":   image.TransformedURL,
		"credits_remaining": remaining,
	}, "Object replaced successfully"))
}

func (h *MediaHandler) ExtendImage(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	width, _ := strconv.Atoi(c.FormValue("width"))
	height, _ := strconv.Atoi(c.FormValue("height"))

	image, remaining, err := h.mediaService.ExtendImage(c.Context(), user.ID,
		formFile(c, "file"), c.FormValue("prompt"), width, height)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"transformed_url":   image.TransformedURL,
		"credits_remaining": remaining,
	}, "Image extended successfully"))
}

func (h *MediaHandler) RemoveBackground(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	image, remaining, err := h.mediaService.RemoveBackground(c.Context(), user.ID,
		formFile(c, "file"), c.FormValue("public_id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(fiber.Map{
		"public_id":         image.PublicID,
		"transformed_url":   image.TransformedURL,
		"credits_remaining": remaining,
	}, "Background removed successfully"))
}

func (h *MediaHandler) GetImages(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	images, err := h.mediaService.GetUserImages(user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(images, ""))
}

func (h *MediaHandler) GetVideos(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		if err == fiber.ErrUnauthorized {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse("Unauthorized"))
		}
		return respondError(c, err)
	}

	videos, err := h.mediaService.GetUserVideos(user.ID)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(models.SuccessResponse(videos, ""))
}
