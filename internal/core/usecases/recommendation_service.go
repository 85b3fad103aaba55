package usecases

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
	"github.com/samirrijal/coursemate/internal/core/scoring"
	"github.com/samirrijal/coursemate/internal/pkg/deeplink"
	"github.com/samirrijal/coursemate/internal/pkg/geospatial"
	"github.com/samirrijal/coursemate/internal/pkg/logging"
	"github.com/samirrijal/coursemate/internal/pkg/metrics"
	"github.com/samirrijal/coursemate/internal/pkg/telemetry"
)

// Feature tags attached to every recommended spot.
var (
	freshFeatures   = []string{"#데이터기반", "#AI추천"}
	retryFeatures   = []string{"#새로운코스", "#데이터추천"}
	fallbackFeature = "#지역인기"
)

var messages = map[domain.RecommendMode]string{
	domain.ModeFresh: "추천 코스를 찾았습니다.",
	domain.ModeRetry: "새로운 코스를 찾았습니다.",
}

var fallbackMessages = map[domain.RecommendMode]string{
	domain.ModeFresh: "취향에 맞는 곳이 없어 지역 인기 코스를 추천합니다.",
	domain.ModeRetry: "취향에 맞는 새 장소가 없어 지역 인기 코스를 추천합니다.",
}

// EmptyCourseMessage is returned when no spot is left to recommend.
const EmptyCourseMessage = "추천할 장소가 없습니다."

// RecommendationService composes ranking, detail lookup, sequencing and
// link building into the two recommendation operations.
type RecommendationService struct {
	source  ports.DataSource
	ranker  *EvidenceAggregator
	catalog *SpotCatalog
	links   *deeplink.Builder
	events  ports.EventPublisher
	start   domain.GeoPoint
	now     func() time.Time
}

// NewRecommendationService creates a RecommendationService. events may be
// nil. defaultStart seeds sequencing for requests without a location.
func NewRecommendationService(
	source ports.DataSource,
	ranker *EvidenceAggregator,
	catalog *SpotCatalog,
	links *deeplink.Builder,
	events ports.EventPublisher,
	defaultStart domain.GeoPoint,
) *RecommendationService {
	return &RecommendationService{
		source:  source,
		ranker:  ranker,
		catalog: catalog,
		links:   links,
		events:  events,
		start:   defaultStart,
		now:     time.Now,
	}
}

// Recommend builds a fresh course. Any exclude set on req is still honoured.
func (s *RecommendationService) Recommend(ctx context.Context, req domain.RecommendationRequest) (*domain.Course, error) {
	return s.run(ctx, domain.ModeFresh, req)
}

// Retry builds a course avoiding every spot in req.Exclude.
func (s *RecommendationService) Retry(ctx context.Context, req domain.RecommendationRequest) (*domain.Course, error) {
	return s.run(ctx, domain.ModeRetry, req)
}

func (s *RecommendationService) run(ctx context.Context, mode domain.RecommendMode, req domain.RecommendationRequest) (course *domain.Course, err error) {
	started := time.Now()
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanRecommend)
	defer span.End()

	log := logging.FromContext(ctx).With("mode", string(mode), "region", req.Region)

	defer func() {
		outcome := "ok"
		switch {
		case err != nil && domain.IsValidation(err):
			outcome = "invalid"
		case err != nil:
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case len(course.Spots) == 0:
			outcome = "empty"
		}
		metrics.RecommendationsTotal.WithLabelValues(string(mode), outcome).Inc()
		metrics.PipelineDuration.WithLabelValues(string(mode)).Observe(time.Since(started).Seconds())
	}()

	req.Region = strings.TrimSpace(req.Region)
	if req.Region == "" {
		return nil, domain.ErrRegionRequired
	}
	span.SetAttributes(attribute.String("region", req.Region), attribute.String("mode", string(mode)))

	sess, err := s.source.Acquire(ctx)
	if err != nil {
		return nil, dataErr("acquire", err)
	}
	defer sess.Release()

	tags := req.Tags
	if len(scoring.NormalizeTags(tags)) == 0 {
		tctx, tspan := telemetry.Tracer().Start(ctx, telemetry.SpanTags)
		tags, err = s.catalog.TagsForUser(tctx, sess, req.UserID)
		tspan.End()
		if err != nil {
			return nil, err
		}
	}

	candidates, fallback, err := s.ranker.Rank(ctx, sess, tags, req.Region, req.Exclude)
	if err != nil {
		return nil, err
	}
	if fallback {
		metrics.FallbackActivations.WithLabelValues(string(mode)).Inc()
	}
	log.Debug("ranked candidates", "tags", len(tags), "candidates", len(candidates), "fallback", fallback)

	course = &domain.Course{Spots: []domain.RecommendedSpot{}, Fallback: fallback}
	if len(candidates) == 0 {
		course.Message = EmptyCourseMessage
		metrics.CourseSize.Observe(0)
		return course, nil
	}

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.SpotID
	}
	dctx, dspan := telemetry.Tracer().Start(ctx, telemetry.SpanDetails)
	details, err := s.catalog.Details(dctx, sess, ids)
	dspan.End()
	if err != nil {
		return nil, err
	}

	features := featuresFor(mode, fallback)
	picked := make([]domain.RecommendedSpot, 0, len(candidates))
	for _, c := range candidates {
		sp, ok := details[c.SpotID]
		if !ok {
			log.Warn("ranked spot has no details, skipping", "spot_id", c.SpotID)
			continue
		}
		picked = append(picked, domain.RecommendedSpot{
			SpotID:     sp.ID,
			SpotName:   sp.Name,
			Address:    sp.Address,
			Lat:        sp.Location.Lat,
			Lng:        sp.Location.Lng,
			MatchScore: scoring.Normalize(c.RawScore),
			Features:   append([]string(nil), features...),
		})
	}

	start := s.start
	if req.Location != nil {
		start = *req.Location
	}

	_, sspan := telemetry.Tracer().Start(ctx, telemetry.SpanSequence)
	course.Spots = geospatial.Sequence(picked, geospatial.Point{Lat: start.Lat, Lng: start.Lng},
		func(r domain.RecommendedSpot) geospatial.Point {
			return geospatial.Point{Lat: r.Lat, Lng: r.Lng}
		})
	sspan.End()

	stops := make([]deeplink.Stop, len(course.Spots))
	for i, r := range course.Spots {
		stops[i] = deeplink.Stop{Name: r.SpotName, Lat: r.Lat, Lng: r.Lng}
	}
	course.MapLink = s.links.Build(deeplink.Stop{Lat: start.Lat, Lng: start.Lng}, stops)

	switch {
	case len(course.Spots) == 0:
		course.Message = EmptyCourseMessage
	case fallback:
		course.Message = fallbackMessages[mode]
	default:
		course.Message = messages[mode]
	}

	metrics.CourseSize.Observe(float64(len(course.Spots)))
	log.Info("course served", "spots", len(course.Spots), "fallback", fallback)
	s.publish(ctx, mode, req, course)
	return course, nil
}

func featuresFor(mode domain.RecommendMode, fallback bool) []string {
	base := freshFeatures
	if mode == domain.ModeRetry {
		base = retryFeatures
	}
	out := append([]string(nil), base...)
	if fallback {
		out = append(out, fallbackFeature)
	}
	return out
}

// publish emits a CourseServed event. Failures are logged only.
func (s *RecommendationService) publish(ctx context.Context, mode domain.RecommendMode, req domain.RecommendationRequest, course *domain.Course) {
	if s.events == nil || len(course.Spots) == 0 {
		return
	}
	ids := make([]string, len(course.Spots))
	for i, r := range course.Spots {
		ids[i] = r.SpotID
	}
	event := &domain.CourseEvent{
		Mode:      mode,
		UserID:    req.UserID,
		Region:    req.Region,
		SpotIDs:   ids,
		Fallback:  course.Fallback,
		ServedAt:  s.now().UTC(),
		RequestID: logging.RequestID(ctx),
	}
	if err := s.events.PublishCourseServed(ctx, event); err != nil {
		logging.FromContext(ctx).Warn("publish course event failed", "error", err)
	}
}
