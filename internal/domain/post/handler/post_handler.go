package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"

	"postboard/internal/domain/post/model"
	"postboard/internal/domain/post/service"
	"postboard/internal/pkg/common"
	"postboard/internal/pkg/middleware"
	"postboard/pkg/response"
	"postboard/pkg/utils"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	service service.PostService
	feed    *service.FeedLoader
	stream  *StreamHandler
}

func NewPostHandler(s service.PostService, feed *service.FeedLoader, stream *StreamHandler) *PostHandler {
	return &PostHandler{service: s, feed: feed, stream: stream}
}

// ListPosts 帖子列表
// @Summary 帖子列表（最新在前）
// @Description 不带参数返回全部；带 limit 或 cursor 时按游标分页
// @Tags Post
// @Produce json
// @Param limit query int false "每页数量，默认 20，最大 100"
// @Param cursor query string false "上一页返回的 nextCursor"
// @Success 200 {object} response.Response{data=[]model.PostView}
// @Router /posts [get]
func (h *PostHandler) ListPosts(c *gin.Context) {
	var q utils.CursorQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid query parameters")
		return
	}

	if !q.Active() {
		posts, err := h.feed.Load(c.Request.Context())
		if err != nil {
			common.Internal(c, err, "Failed to load posts")
			return
		}
		response.Success(c, model.NewViews(posts))
		return
	}

	page, err := h.feed.Page(c.Request.Context(), q.Cursor, q.Limit)
	if err != nil {
		if errors.Is(err, utils.ErrInvalidCursor) {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid cursor")
			return
		}
		common.Internal(c, err, "Failed to load posts")
		return
	}
	response.Success(c, utils.CursorPage{List: model.NewViews(page.Posts), NextCursor: page.NextCursor})
}

// GetPost 帖子详情
// @Summary 帖子详情
// @Tags Post
// @Produce json
// @Param id path string true "帖子ID"
// @Success 200 {object} response.Response{data=model.PostView}
// @Router /posts/{id} [get]
func (h *PostHandler) GetPost(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err, "Failed to load post")
		return
	}
	response.Success(c, model.NewView(*post))
}

// Stream 帖子变更推送
// @Summary 帖子流 WebSocket，连接后及每次变更时推送完整列表
// @Tags Post
// @Router /posts/stream [get]
func (h *PostHandler) Stream(c *gin.Context) {
	h.stream.Serve(c)
}

// CreatePost 发布帖子（管理员）
// @Summary 发布帖子
// @Tags Post
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param title formData string true "标题"
// @Param content formData string true "正文"
// @Param externalUrl formData string false "外部链接"
// @Param image formData file false "图片"
// @Param document formData file false "文档"
// @Success 200 {object} response.Response{data=model.PostView}
// @Router /posts [post]
func (h *PostHandler) CreatePost(c *gin.Context) {
	in := service.PostInput{
		Title:       c.PostForm("title"),
		Content:     c.PostForm("content"),
		ExternalURL: c.PostForm("externalUrl"),
	}

	var att service.Attachments
	image, closeImage, err := formAttachment(c, "image")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid image upload")
		return
	}
	defer closeImage()
	att.Image = image

	document, closeDocument, err := formAttachment(c, "document")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "Invalid document upload")
		return
	}
	defer closeDocument()
	att.Document = document

	post, err := h.service.CreatePost(c.Request.Context(), middleware.CurrentUserID(c), in, att)
	if err != nil {
		h.fail(c, err, "Failed to save post")
		return
	}
	response.Success(c, model.NewView(*post))
}

// UpdatePost 编辑帖子（管理员）
// @Summary 编辑帖子，可覆盖点赞数
// @Tags Post
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "帖子ID"
// @Param input body service.PostUpdate true "编辑内容"
// @Success 200 {object} response.Response{data=model.PostView}
// @Router /posts/{id} [put]
func (h *PostHandler) UpdatePost(c *gin.Context) {
	var in service.PostUpdate
	if !common.BindJSON(c, &in) {
		return
	}

	post, err := h.service.UpdatePost(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err, "Failed to update post")
		return
	}
	response.Success(c, model.NewView(*post))
}

// DeletePost 删除帖子（管理员）
// @Summary 删除帖子，需要 confirm=true
// @Tags Post
// @Security BearerAuth
// @Param id path string true "帖子ID"
// @Param confirm query bool true "确认删除"
// @Success 200 {object} response.Response
// @Router /posts/{id} [delete]
func (h *PostHandler) DeletePost(c *gin.Context) {
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	if err := h.service.DeletePost(c.Request.Context(), c.Param("id"), confirmed); err != nil {
		h.fail(c, err, "Failed to delete post")
		return
	}
	response.Success(c, nil)
}

// fail internalMsg 仅用于未识别的内部错误
func (h *PostHandler) fail(c *gin.Context, err error, internalMsg string) {
	switch {
	case common.ValidationFailed(c, err):
	case errors.Is(err, service.ErrPostNotFound):
		response.Error(c, http.StatusNotFound, response.ErrPostNotFound, "Post not found")
	case errors.Is(err, service.ErrConfirmationRequired):
		response.Error(c, http.StatusBadRequest, response.ErrConfirmationRequired, "Deletion must be confirmed")
	case errors.Is(err, service.ErrUploadFailed):
		_ = c.Error(err)
		response.Error(c, http.StatusBadGateway, response.ErrUploadFailed, "Failed to upload attachment")
	default:
		common.Internal(c, err, internalMsg)
	}
}

// formAttachment 读取表单文件，未上传时返回 nil
func formAttachment(c *gin.Context, field string) (*service.Attachment, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	return openAttachment(fh)
}

func openAttachment(fh *multipart.FileHeader) (*service.Attachment, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, err
	}
	contentType := fh.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &service.Attachment{Filename: fh.Filename, ContentType: contentType, Body: f}, func() { _ = f.Close() }, nil
}
