package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"bookstore-backend/apperrors"
	"bookstore-backend/middleware"
	"bookstore-backend/models"
	"bookstore-backend/repository"
	"bookstore-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewBookChannel is the pub/sub channel clients listen on for new catalog
// items.
const NewBookChannel = "books:new"

type NotificationController struct {
	registry   *services.PushRegistry
	dispatcher *services.PushDispatcher
	sender     *services.WebPushSender
	books      repository.BookRepository
	redis      *redis.Client
	baseURL    string
	logger     *zap.Logger
}

func NewNotificationController(
	registry *services.PushRegistry,
	dispatcher *services.PushDispatcher,
	sender *services.WebPushSender,
	books repository.BookRepository,
	redisClient *redis.Client,
	baseURL string,
	logger *zap.Logger,
) *NotificationController {
	return &NotificationController{
		registry:   registry,
		dispatcher: dispatcher,
		sender:     sender,
		books:      books,
		redis:      redisClient,
		baseURL:    baseURL,
		logger:     logger,
	}
}

type subscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	Keys     struct {
		P256dh string `json:"p256dh" binding:"required"`
		Auth   string `json:"auth" binding:"required"`
	} `json:"keys" binding:"required"`
}

// Subscribe registers the caller's browsing context for push delivery.
func (nc *NotificationController) Subscribe(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	var req subscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("invalid subscription payload"))
		return
	}

	if err := nc.registry.Register(c.Request.Context(), userID, req.Endpoint, req.Keys.P256dh, req.Keys.Auth, c.Request.UserAgent()); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "subscribed"})
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// Unsubscribe removes the caller's subscription by endpoint.
func (nc *NotificationController) Unsubscribe(c *gin.Context) {
	if _, err := middleware.GetUserID(c); err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	var req unsubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("endpoint is required"))
		return
	}

	if err := nc.registry.Remove(c.Request.Context(), req.Endpoint); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "unsubscribed"})
}

type sendPushRequest struct {
	BookID uuid.UUID `json:"book_id"`
}

// SendPush fans a new-book alert out to every deduplicated subscriber and
// publishes the event on the live channel for connected clients.
func (nc *NotificationController) SendPush(c *gin.Context) {
	if !nc.sender.Configured() {
		apperrors.Respond(c, apperrors.Internal("push credentials not configured", nil))
		return
	}

	var req sendPushRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookID == uuid.Nil {
		apperrors.Respond(c, apperrors.Validation("book_id is required"))
		return
	}

	book, err := nc.books.FindByID(c.Request.Context(), req.BookID)
	if err != nil {
		apperrors.Respond(c, apperrors.Internal("failed to look up book", err))
		return
	}
	if book == nil {
		apperrors.Respond(c, apperrors.Validation(fmt.Sprintf("book %s not found", req.BookID)))
		return
	}

	payload := &models.NotificationPayload{
		Title: "New book: " + book.Title,
		Body:  fmt.Sprintf("%s — %.2f", book.Author, book.Price),
		Icon:  book.CoverURL,
		Tag:   "book-" + book.ID.String(),
		Data: map[string]interface{}{
			"url":    nc.baseURL + "/books/" + book.ID.String(),
			"bookId": book.ID.String(),
		},
	}

	recipients, err := nc.registry.ListForFanout(c.Request.Context())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	result := nc.dispatcher.Dispatch(c.Request.Context(), payload, recipients)

	// Best-effort live-channel publish for open browsing contexts.
	if nc.redis != nil {
		if data, err := json.Marshal(payload); err == nil {
			if err := nc.redis.Publish(c.Request.Context(), NewBookChannel, data).Err(); err != nil {
				nc.logger.Warn("live channel publish failed", zap.Error(err))
			}
		}
	}

	nc.logger.Info("new book alert dispatched",
		zap.String("book_id", book.ID.String()),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total),
	)
	c.JSON(http.StatusOK, result)
}
