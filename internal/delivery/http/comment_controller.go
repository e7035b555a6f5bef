package http

import (
	"strings"

	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/middleware"
	"github.com/ferdian3456/virdanthread/internal/model"
	"github.com/ferdian3456/virdanthread/internal/usecase"
	"github.com/ferdian3456/virdanthread/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

type CommentController struct {
	CommentUsecase *usecase.CommentUsecase
	Log            *zap.Logger
	Config         *koanf.Koanf
}

func NewCommentController(commentUsecase *usecase.CommentUsecase, zap *zap.Logger, koanf *koanf.Koanf) *CommentController {
	return &CommentController{
		CommentUsecase: commentUsecase,
		Log:            zap,
		Config:         koanf,
	}
}

func (controller *CommentController) GetComments(ctx *fiber.Ctx) error {
	thread, err := controller.CommentUsecase.GetComments(ctx.UserContext(), ctx.Params("postId"))
	if err != nil {
		return util.SendErrorResponseFor(ctx, middleware.LoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, thread)
}

func (controller *CommentController) CreateComment(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	request := model.CreateCommentRequest{
		PostId:    ctx.Params("postId"),
		AuthorId:  userId.String(),
		Content:   ctx.FormValue("content"),
		ParentId:  ctx.FormValue("parentId"),
		ClientRef: ctx.FormValue("clientRef"),
	}

	if strings.HasPrefix(string(ctx.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		form, err := ctx.MultipartForm()
		if err != nil {
			return util.SendErrorResponse(ctx, &model.ValidationError{
				Code:    constant.ERR_INVALID_REQUEST_BODY_ERROR_CODE,
				Message: constant.ERR_INVALID_REQUEST_BODY_MESSAGE,
			})
		}

		maxSize := controller.Config.Int64("MEDIA_MAX_SIZE")
		if maxSize <= 0 {
			maxSize = constant.MAX_FILE_SIZE
		}

		for _, fileHeader := range form.File["media"] {
			item, err := util.ReadMediaItem(fileHeader, maxSize)
			if err != nil {
				return util.SendErrorResponseInternalServer(ctx, middleware.LoggerFromContext(ctx, controller.Log), err)
			}

			request.Media = append(request.Media, item)
		}
	}

	comment, err := controller.CommentUsecase.CreateComment(ctx.UserContext(), userId, request)
	if err != nil {
		return util.SendErrorResponseFor(ctx, middleware.LoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, comment)
}

func (controller *CommentController) ToggleCommentLike(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	response, err := controller.CommentUsecase.ToggleCommentLike(ctx.UserContext(), userId, ctx.Params("postId"), ctx.Params("commentId"))
	if err != nil {
		return util.SendErrorResponseFor(ctx, middleware.LoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}

func (controller *CommentController) TogglePostLike(ctx *fiber.Ctx) error {
	userId := ctx.Locals("userId").(uuid.UUID)

	response, err := controller.CommentUsecase.TogglePostLike(ctx.UserContext(), userId, ctx.Params("postId"))
	if err != nil {
		return util.SendErrorResponseFor(ctx, middleware.LoggerFromContext(ctx, controller.Log), err)
	}

	return util.SendSuccessResponseWithData(ctx, response)
}
