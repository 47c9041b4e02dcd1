package http

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"

	"github.com/samirrijal/geosurvey/internal/core/domain"
)

// jsonScalar exposes free-form stored JSON (questions, answers, locations)
// as GraphQL values.
var jsonScalar = graphql.NewScalar(graphql.ScalarConfig{
	Name:        "JSON",
	Description: "Arbitrary JSON value",
	Serialize:   serializeJSON,
	ParseValue:  func(value interface{}) interface{} { return value },
	ParseLiteral: func(valueAST ast.Value) interface{} {
		if v, ok := valueAST.(*ast.StringValue); ok {
			return v.Value
		}
		return nil
	},
})

func serializeJSON(value interface{}) interface{} {
	switch v := value.(type) {
	case json.RawMessage:
		if len(v) == 0 {
			return nil
		}
		var out interface{}
		if err := json.Unmarshal(v, &out); err != nil {
			return nil
		}
		return out
	case *json.RawMessage:
		if v == nil {
			return nil
		}
		return serializeJSON(*v)
	default:
		return v
	}
}

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	surveyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Survey",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.Int},
			"name":       &graphql.Field{Type: graphql.String},
			"questions":  &graphql.Field{Type: graphql.NewList(jsonScalar)},
			"created_at": &graphql.Field{Type: graphql.DateTime},
		},
	})

	responseType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SurveyResponse",
		Fields: graphql.Fields{
			"id":                   &graphql.Field{Type: graphql.Int},
			"user_id":              &graphql.Field{Type: graphql.Int},
			"survey_id":            &graphql.Field{Type: graphql.Int},
			"responses":            &graphql.Field{Type: jsonScalar},
			"location":             &graphql.Field{Type: jsonScalar},
			"voice_recording_path": &graphql.Field{Type: graphql.String},
			"created_at":           &graphql.Field{Type: graphql.DateTime},
		},
	})

	responsePageType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ResponsePage",
		Fields: graphql.Fields{
			"data":  &graphql.Field{Type: graphql.NewList(responseType)},
			"total": &graphql.Field{Type: graphql.Int},
		},
	})

	reportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SurveyReport",
		Fields: graphql.Fields{
			"survey_id":       &graphql.Field{Type: graphql.Int},
			"survey_name":     &graphql.Field{Type: graphql.String},
			"total_responses": &graphql.Field{Type: graphql.Int},
			"option_counts":   &graphql.Field{Type: jsonScalar},
			"coordinates":     &graphql.Field{Type: graphql.NewList(geoPointType)},
			"decode_errors":   &graphql.Field{Type: graphql.Int},
			"generated_at":    &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"surveys": &graphql.Field{
				Type:        graphql.NewList(surveyType),
				Description: "List all surveys",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Surveys.List(p.Context)
				},
			},
			"survey": &graphql.Field{
				Type:        surveyType,
				Description: "Get a survey by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					return deps.Surveys.Get(p.Context, int64(id))
				},
			},
			"surveyReport": &graphql.Field{
				Type:        reportType,
				Description: "Aggregated answers and coordinates of a survey",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id, _ := p.Args["id"].(int)
					return deps.Reports.Build(p.Context, int64(id))
				},
			},
			"responses": &graphql.Field{
				Type:        responsePageType,
				Description: "A page of responses to a survey",
				Args: graphql.FieldConfigArgument{
					"surveyId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"offset":   &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":    &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 50},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					surveyID, _ := p.Args["surveyId"].(int)
					offset, _ := p.Args["offset"].(int)
					limit, _ := p.Args["limit"].(int)
					data, total, err := deps.Surveys.ListResponses(p.Context, domain.ResponseFilter{
						SurveyID: int64(surveyID),
						Offset:   offset,
						Limit:    limit,
					})
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"data": data, "total": total}, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
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
		if req.Query == "" {
			return errBadRequest(c, "query is required")
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
