package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adverant/nexus/mathsolver/internal/errors"
	"github.com/adverant/nexus/mathsolver/internal/processor"
)

const requestIDKey = "requestId"

type Handler struct {
	processor     processor.ProblemProcessorInterface
	maxUploadSize int64
}

func NewHandler(p processor.ProblemProcessorInterface, maxUploadSize int64) *Handler {
	return &Handler{processor: p, maxUploadSize: maxUploadSize}
}

// SolveResponse is the success body of POST /solve_math_problem
type SolveResponse struct {
	Success        bool     `json:"success"`
	Problem        string   `json:"problem"`
	Answer         string   `json:"answer"`
	Steps          []string `json:"steps"`
	ProcessingTime string   `json:"processing_time"`
	TokensUsed     int      `json:"tokens_used"`
}

// Index returns the service descriptor
func (h *Handler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "数学题图片识别与解答服务",
		"endpoints": gin.H{
			"/solve_math_problem": "POST - 上传图片并解答数学题",
			"/frontend":           "GET - 访问前端页面",
		},
	})
}

// Frontend redirects to the static page
func (h *Handler) Frontend(c *gin.Context) {
	c.Redirect(http.StatusFound, "/index.html")
}

// SolveMathProblem handles the multipart image upload
func (h *Handler) SolveMathProblem(c *gin.Context) {
	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	}

	data, filename, err := readImage(c)
	if err != nil {
		writeError(c, err)
		return
	}

	// The pipeline runs to completion even if the client goes away
	result, err := h.processor.ProcessProblem(context.WithoutCancel(c.Request.Context()), &processor.ProcessRequest{
		RequestID: c.GetString(requestIDKey),
		Filename:  filename,
		Image:     data,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, SolveResponse{
		Success:        true,
		Problem:        result.Problem,
		Answer:         result.Answer,
		Steps:          result.Steps,
		ProcessingTime: fmt.Sprintf("%.2f 秒", result.ProcessingTime.Seconds()),
		TokensUsed:     result.TokensUsed,
	})
}

func readImage(c *gin.Context) ([]byte, string, error) {
	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, "", errors.NewInvalidImageError(fmt.Errorf("图片文件过大，最大 %d 字节", tooLarge.Limit))
		}
		return nil, "", errors.NewMissingImageError()
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", errors.NewInvalidImageError(err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errors.NewInvalidImageError(err)
	}
	return data, header.Filename, nil
}

func writeError(c *gin.Context, err error) {
	c.JSON(errors.HTTPStatus(err), gin.H{"error": errors.PublicMessage(err)})
}
