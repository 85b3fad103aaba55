package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/pkg/logging"
	"github.com/samirrijal/coursemate/internal/pkg/validation"
)

// buildSchema creates the GraphQL schema wired to the recommendation service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	spotType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RecommendedSpot",
		Fields: graphql.Fields{
			"spotId":     &graphql.Field{Type: graphql.String},
			"spotName":   &graphql.Field{Type: graphql.String},
			"address":    &graphql.Field{Type: graphql.String},
			"lat":        &graphql.Field{Type: graphql.Float},
			"lng":        &graphql.Field{Type: graphql.Float},
			"matchScore": &graphql.Field{Type: graphql.Float},
			"features":   &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	courseType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Course",
		Fields: graphql.Fields{
			"message":  &graphql.Field{Type: graphql.String},
			"fallback": &graphql.Field{Type: graphql.Boolean},
			"mapLink":  &graphql.Field{Type: graphql.String},
			"course":   &graphql.Field{Type: graphql.NewList(spotType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"recommendCourse": &graphql.Field{
				Type:        courseType,
				Description: "Recommend a sequenced course of spots in a region. Passing excludeIds makes it a retry.",
				Args: graphql.FieldConfigArgument{
					"region":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"userId":     &graphql.ArgumentConfig{Type: graphql.String},
					"lat":        &graphql.ArgumentConfig{Type: graphql.Float},
					"lng":        &graphql.ArgumentConfig{Type: graphql.Float},
					"tags":       &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"excludeIds": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := recommendQuery{
						Region:     stringArg(p.Args, "region"),
						UserID:     stringArg(p.Args, "userId"),
						Lat:        floatArg(p.Args, "lat"),
						Lng:        floatArg(p.Args, "lng"),
						Tags:       listArg(p.Args, "tags"),
						ExcludeIDs: listArg(p.Args, "excludeIds"),
					}
					if err := validation.Struct(&q); err != nil {
						return nil, err
					}
					req := q.toRequest()

					run := deps.Recommendations.Recommend
					if len(req.Exclude) > 0 {
						run = deps.Recommendations.Retry
					}
					course, err := run(p.Context, req)
					if err != nil {
						var ve *domain.ValidationError
						if errors.As(err, &ve) {
							return nil, ve
						}
						logging.FromContext(p.Context).Error("graphql recommendation failed", "error", err)
						return nil, fmt.Errorf("internal server error")
					}
					return map[string]interface{}{
						"message":  course.Message,
						"fallback": course.Fallback,
						"mapLink":  course.MapLink,
						"course":   course.Spots,
					}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func floatArg(args map[string]interface{}, key string) *float64 {
	if f, ok := args[key].(float64); ok {
		return &f
	}
	return nil
}

func listArg(args map[string]interface{}, key string) []string {
	raw, _ := args[key].([]interface{})
	var out []string
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
