package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"verdantplate/api/internal/auth"
	"verdantplate/api/internal/authpw"
	"verdantplate/api/internal/catalog"
	"verdantplate/api/internal/config"
	"verdantplate/api/internal/email"
	"verdantplate/api/internal/media"
	"verdantplate/api/internal/store"
	"verdantplate/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	JTI          string
	ExpiresAt    time.Time
}

// Present reports whether an identity is attached to this session. Every
// content gate in the service keys off this single bit.
func (s Session) Present() bool {
	return s.UserID != ""
}

type dataStore interface {
	ListItems(context.Context) ([]catalog.Item, error)
	ListItemsByCategory(context.Context, catalog.Category) ([]catalog.Item, error)
	GetRecipe(context.Context, string) (catalog.Item, error)
	InsertRecipe(context.Context, catalog.Item) error
	ListComments(context.Context, string) ([]store.Comment, error)
	InsertComment(context.Context, store.Comment) error
	GetUserByEmail(context.Context, string) (store.User, error)
	GetUserByID(context.Context, string) (store.User, error)
	CreateUser(context.Context, store.User) error
	VerifyUserEmail(context.Context, string) error
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	Ping(ctx context.Context) error
}

// sessionStore is the refresh-token surface. Redis serves it when
// configured; the Postgres store is the fallback.
type sessionStore interface {
	SaveRefreshSession(context.Context, string, string, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	engine   *catalog.Engine
	authpw   *authpw.Service
	media    *media.Host
	mailer   *email.Service
}

func New(cfg config.Config, dataStore *store.RecipeStore, authService *authpw.Service, mediaHost *media.Host, mailer *email.Service) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: dataStore,
		engine:   catalog.NewEngine(dataStore),
		authpw:   authService,
		media:    mediaHost,
		mailer:   mailer,
	}
}

func NewWithSessionStore(cfg config.Config, dataStore *store.RecipeStore, sessions sessionStore, authService *authpw.Service, mediaHost *media.Host, mailer *email.Service) *Service {
	service := New(cfg, dataStore, authService, mediaHost, mailer)
	service.sessions = sessions
	return service
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Bootstrap seeds the catalog on first start so a fresh install has
// something to browse.
func (s *Service) Bootstrap(ctx context.Context) error {
	items, err := s.store.ListItems(ctx)
	if err != nil {
		return err
	}
	if len(items) > 0 {
		return nil
	}

	seeds := []catalog.Item{
		{
			ID:          util.NewID("rcp"),
			Name:        "Vegan Pancakes",
			Category:    catalog.CategoryBreakfast,
			Description: "Fluffy weekend pancakes without the eggs.",
			Ingredients: []string{"2 cups flour", "2 cups oat milk", "2 tbsp maple syrup", "1 tbsp baking powder"},
			Steps:       []string{"Whisk the dry ingredients.", "Fold in the oat milk and syrup.", "Cook on a hot griddle until golden."},
			Author:      "VerdantPlate Kitchen",
			AuthorEmail: "kitchen@verdantplate.dev",
			Nutrition:   catalog.Nutrition{Servings: "4", PrepTime: "25 min", Calories: "310"},
		},
		{
			ID:          util.NewID("rcp"),
			Name:        "Chickpea Buddha Bowl",
			Category:    catalog.CategoryLunch,
			Description: "Roasted chickpeas over grains with tahini dressing.",
			Ingredients: []string{"1 can chickpeas", "1 cup quinoa", "2 tbsp tahini", "1 lemon"},
			Steps:       []string{"Roast the chickpeas.", "Cook the quinoa.", "Assemble and dress."},
			Author:      "VerdantPlate Kitchen",
			AuthorEmail: "kitchen@verdantplate.dev",
			Nutrition:   catalog.Nutrition{Servings: "2", PrepTime: "35 min", Calories: "520"},
		},
		{
			ID:          util.NewID("rcp"),
			Name:        "Mushroom Lentil Ragu",
			Category:    catalog.CategoryDinner,
			Description: "Slow-simmered ragu with brown lentils and cremini mushrooms.",
			Ingredients: []string{"1 cup brown lentils", "300g cremini mushrooms", "1 can crushed tomatoes", "1 onion"},
			Steps:       []string{"Brown the mushrooms and onion.", "Add lentils and tomatoes.", "Simmer for forty minutes."},
			Author:      "VerdantPlate Kitchen",
			AuthorEmail: "kitchen@verdantplate.dev",
			Nutrition:   catalog.Nutrition{Servings: "4", PrepTime: "60 min", Calories: "430"},
		},
	}
	for _, seed := range seeds {
		if err := s.store.InsertRecipe(ctx, seed); err != nil {
			return err
		}
	}
	return nil
}

// Catalog runs one query against the engine: a category filter plus an
// optional search term, already debounced by the client.
func (s *Service) Catalog(ctx context.Context, rawFilter, term string) ([]catalog.Item, error) {
	filter, err := catalog.ParseFilter(rawFilter)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}
	result, err := s.engine.Query(ctx, catalog.Query{Filter: filter, Term: term})
	if err != nil {
		return nil, fmt.Errorf("catalog query: %w", err)
	}
	return result.Items, nil
}

// RecipeDetail fetches one recipe and applies the access gate server-side:
// without an identity the restricted fields (description, ingredients,
// steps, nutrition) never leave the service, and neither do comments or
// recommendations.
func (s *Service) RecipeDetail(ctx context.Context, session Session, recipeID string) (map[string]any, error) {
	item, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	payload := summaryPayload(item)
	if !session.Present() {
		payload["locked"] = true
		delete(payload, "description")
		return payload, nil
	}

	comments, err := s.store.ListComments(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	recommendations, err := catalog.Recommend(ctx, s.store, item.Category, item.ID)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}

	payload["locked"] = false
	payload["ingredients"] = item.Ingredients
	payload["steps"] = item.Steps
	payload["nutrition"] = map[string]string{
		"servings": item.Nutrition.Servings,
		"prepTime": item.Nutrition.PrepTime,
		"calories": item.Nutrition.Calories,
		"fat":      item.Nutrition.Fat,
		"carbs":    item.Nutrition.Carbs,
		"protein":  item.Nutrition.Protein,
	}
	payload["comments"] = commentPayloads(comments)
	payload["recommendations"] = summaryPayloads(recommendations)
	return payload, nil
}

// Recommendations returns the similar-recipes list for one reference item.
func (s *Service) Recommendations(ctx context.Context, recipeID string) ([]map[string]any, error) {
	item, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	recommendations, err := catalog.Recommend(ctx, s.store, item.Category, item.ID)
	if err != nil {
		return nil, fmt.Errorf("recommend: %w", err)
	}
	return summaryPayloads(recommendations), nil
}

// Comments lists the full comment thread for a recipe, in store order.
func (s *Service) Comments(ctx context.Context, recipeID string) ([]map[string]any, error) {
	if _, err := s.store.GetRecipe(ctx, recipeID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return commentPayloads(comments), nil
}

// PostComment appends a comment and returns the re-read thread. Posting
// without an identity is a precondition failure the caller turns into a
// login prompt; the write is never attempted.
func (s *Service) PostComment(ctx context.Context, session Session, recipeID, text string) ([]map[string]any, error) {
	if !session.Present() {
		return nil, domainError(http.StatusUnauthorized, "AUTH_REQUIRED", "Please log in to comment", nil)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "comment text is required", nil)
	}
	item, err := s.store.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	comment := store.Comment{
		ID:       util.NewID("cmt"),
		RecipeID: recipeID,
		Author:   session.UserName,
		Text:     text,
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}

	// Re-read rather than appending locally, so the caller always sees
	// exactly what the store committed.
	comments, err := s.store.ListComments(ctx, recipeID)
	if err != nil {
		return nil, fmt.Errorf("relist comments: %w", err)
	}

	s.notifyRecipeAuthor(item, comment)

	return commentPayloads(comments), nil
}

// notifyRecipeAuthor mails the recipe author about a new comment. Delivery
// is best effort and never blocks or fails the request.
func (s *Service) notifyRecipeAuthor(item catalog.Item, comment store.Comment) {
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return
	}
	if item.AuthorEmail == "" || comment.Author == item.Author {
		return
	}
	recipeURL := strings.TrimRight(s.cfg.BaseURL, "/") + "/recipes/" + item.ID
	go func() {
		if err := s.mailer.SendCommentNotification(item.AuthorEmail, item.Name, comment.Author, comment.Text, recipeURL); err != nil {
			log.Printf("WARNING: comment notification to %s failed: %v", item.AuthorEmail, err)
		}
	}()
}

type CreateRecipeInput struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	MediaURL    string   `json:"mediaUrl"`
	Servings    string   `json:"servings"`
	PrepTime    string   `json:"prepTime"`
	Calories    string   `json:"calories"`
	Fat         string   `json:"fat"`
	Carbs       string   `json:"carbs"`
	Protein     string   `json:"protein"`
}

// CreateRecipe appends a new recipe document. The category goes through
// the closed enumeration, so a badly cased or unknown category is rejected
// at the door instead of becoming an unmatchable document.
func (s *Service) CreateRecipe(ctx context.Context, session Session, input CreateRecipeInput) (map[string]any, error) {
	if !session.Present() {
		return nil, domainError(http.StatusUnauthorized, "AUTH_REQUIRED", "Please log in to upload a recipe", nil)
	}
	name := strings.TrimSpace(input.Name)
	description := strings.TrimSpace(input.Description)
	if name == "" || description == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name and description are required", nil)
	}
	category, err := catalog.ParseCategory(input.Category)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	}

	// Best effort; a recipe without an author email just gets no
	// comment notifications.
	var authorEmail string
	if user, err := s.store.GetUserByID(ctx, session.UserID); err == nil {
		authorEmail = user.Email
	}

	item := catalog.Item{
		ID:          util.NewID("rcp"),
		Name:        name,
		Category:    category,
		Description: description,
		Ingredients: catalog.CleanList(input.Ingredients),
		Steps:       catalog.CleanList(input.Steps),
		MediaURL:    strings.TrimSpace(input.MediaURL),
		Author:      session.UserName,
		AuthorEmail: authorEmail,
		Nutrition: catalog.Nutrition{
			Servings: strings.TrimSpace(input.Servings),
			PrepTime: strings.TrimSpace(input.PrepTime),
			Calories: strings.TrimSpace(input.Calories),
			Fat:      strings.TrimSpace(input.Fat),
			Carbs:    strings.TrimSpace(input.Carbs),
			Protein:  strings.TrimSpace(input.Protein),
		},
	}
	if err := s.store.InsertRecipe(ctx, item); err != nil {
		return nil, fmt.Errorf("insert recipe: %w", err)
	}
	return map[string]any{"id": item.ID}, nil
}

// UploadMedia stores a recipe image or video and returns its durable URL
// plus the sniffed kind.
func (s *Service) UploadMedia(ctx context.Context, session Session, filename, contentType string, size int64, reader io.Reader) (map[string]any, error) {
	if !session.Present() {
		return nil, domainError(http.StatusUnauthorized, "AUTH_REQUIRED", "Please log in to upload media", nil)
	}
	if s.media == nil {
		return nil, domainError(http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE", "Media host not configured", nil)
	}
	url, err := s.media.Upload(ctx, filename, contentType, size, reader)
	if err != nil {
		return nil, fmt.Errorf("upload media: %w", err)
	}
	return map[string]any{
		"url":  url,
		"kind": media.KindOf(url),
	}, nil
}

// CreateSession issues an access/refresh token pair for a known user.
func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	jti := util.NewID("jti")
	expiresAt := time.Now().Add(s.cfg.AccessTTL)
	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  user.ID,
		Name: user.DisplayName,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	refreshToken := randomToken()
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refreshToken), user.ID, time.Now().Add(s.cfg.RefreshTTL)); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates an access token and rebuilds the session.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, fmt.Errorf("check revoked token: %w", err)
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Refresh rotates a refresh token and issues a fresh session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	// The Redis backend stores only the user id; fill in the rest.
	if user.DisplayName == "" {
		full, err := s.store.GetUserByID(ctx, user.ID)
		if err != nil {
			return Session{}, fmt.Errorf("load user: %w", err)
		}
		user = full
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, fmt.Errorf("rotate refresh session: %w", err)
	}
	return s.issueSession(ctx, user)
}

// Logout revokes the refresh token and the access token's JTI.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			return fmt.Errorf("revoke refresh session: %w", err)
		}
	}
	if session.JTI != "" {
		if err := s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	return nil
}

func summaryPayload(item catalog.Item) map[string]any {
	return map[string]any{
		"id":          item.ID,
		"name":        item.Name,
		"category":    string(item.Category),
		"description": item.Description,
		"mediaUrl":    item.MediaURL,
		"mediaKind":   string(media.KindOf(item.MediaURL)),
		"author":      item.Author,
		"createdAt":   item.CreatedAt,
	}
}

func summaryPayloads(items []catalog.Item) []map[string]any {
	payloads := make([]map[string]any, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, summaryPayload(item))
	}
	return payloads
}

func commentPayloads(comments []store.Comment) []map[string]any {
	payloads := make([]map[string]any, 0, len(comments))
	for _, comment := range comments {
		payloads = append(payloads, map[string]any{
			"id":        comment.ID,
			"author":    comment.Author,
			"text":      comment.Text,
			"createdAt": comment.CreatedAt,
		})
	}
	return payloads
}

func randomToken() string {
	bytes := make([]byte, 32)
	_, _ = rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
