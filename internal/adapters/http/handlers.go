package http

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/pkg/logging"
	"github.com/samirrijal/coursemate/internal/pkg/validation"
)

// recommendQuery is the query string of both recommendation endpoints.
type recommendQuery struct {
	UserID     string   `query:"userId" validate:"max=64"`
	Region     string   `query:"region" validate:"required,max=100"`
	Lat        *float64 `query:"lat" validate:"required_with=Lng,omitempty,latitude"`
	Lng        *float64 `query:"lng" validate:"required_with=Lat,omitempty,longitude"`
	Tags       []string `query:"tags" validate:"max=20,dive,max=50"`
	ExcludeIDs []string `query:"excludeIds" validate:"max=200,dive,max=64"`
}

// recommendResponse is the success body.
type recommendResponse struct {
	APIResponse
	Course  []domain.RecommendedSpot `json:"course"`
	MapLink string                   `json:"mapLink,omitempty"`
}

// parseRecommendQuery reads and validates the query string.
func parseRecommendQuery(c *fiber.Ctx) (*recommendQuery, error) {
	q := &recommendQuery{
		UserID:     strings.TrimSpace(c.Query("userId")),
		Region:     strings.TrimSpace(c.Query("region")),
		Tags:       splitList(c.Query("tags")),
		ExcludeIDs: splitList(c.Query("excludeIds")),
	}

	var err error
	if q.Lat, err = optionalFloat(c, "lat"); err != nil {
		return nil, err
	}
	if q.Lng, err = optionalFloat(c, "lng"); err != nil {
		return nil, err
	}

	if err := validation.Struct(q); err != nil {
		return nil, &domain.ValidationError{Field: firstField(err), Message: err.Error()}
	}
	return q, nil
}

func (q *recommendQuery) toRequest() domain.RecommendationRequest {
	req := domain.RecommendationRequest{
		UserID:  q.UserID,
		Region:  q.Region,
		Tags:    q.Tags,
		Exclude: domain.NewExcludeSet(q.ExcludeIDs...),
	}
	if q.Lat != nil && q.Lng != nil {
		req.Location = &domain.GeoPoint{Lat: *q.Lat, Lng: *q.Lng}
	}
	return req
}

func optionalFloat(c *fiber.Ctx, key string) (*float64, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &domain.ValidationError{Field: key, Message: key + " must be a number"}
	}
	return &v, nil
}

// splitList splits a comma-separated parameter, dropping blanks.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func firstField(err error) string {
	var ves validation.Errors
	if errors.As(err, &ves) && len(ves) > 0 {
		return ves[0].Field
	}
	return ""
}

type recommendFunc func(ctx context.Context, req domain.RecommendationRequest) (*domain.Course, error)

func recommendHandler(run recommendFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q, err := parseRecommendQuery(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		ctx := c.UserContext()
		course, err := run(ctx, q.toRequest())
		if err != nil {
			var ve *domain.ValidationError
			if errors.As(err, &ve) {
				return errBadRequest(c, ve.Message)
			}
			logging.FromContext(ctx).Error("recommendation failed", "error", err, "region", q.Region)
			return errInternal(c)
		}

		reqID, _ := c.Locals("requestid").(string)
		return c.JSON(recommendResponse{
			APIResponse: APIResponse{ResultCode: fiber.StatusOK, ResultMsg: course.Message, RequestID: reqID},
			Course:      course.Spots,
			MapLink:     course.MapLink,
		})
	}
}

// RecommendHandler serves a fresh course.
func RecommendHandler(deps *Dependencies) fiber.Handler {
	return recommendHandler(deps.Recommendations.Recommend)
}

// RetryHandler serves a course that avoids the spots in excludeIds.
func RetryHandler(deps *Dependencies) fiber.Handler {
	return recommendHandler(deps.Recommendations.Retry)
}
