package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"
)

// buildSchema creates the read-only GraphQL schema over the fire analytics.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	countType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Count",
		Fields: graphql.Fields{
			"key":   &graphql.Field{Type: graphql.Int},
			"count": &graphql.Field{Type: graphql.Int},
		},
	})

	seasonCountType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SeasonCount",
		Fields: graphql.Fields{
			"season": &graphql.Field{Type: graphql.String},
			"count":  &graphql.Field{Type: graphql.Int},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RegionStats",
		Fields: graphql.Fields{
			"region":         &graphql.Field{Type: graphql.String},
			"count":          &graphql.Field{Type: graphql.Int},
			"avg_brightness": &graphql.Field{Type: graphql.Float},
			"avg_frp":        &graphql.Field{Type: graphql.Float},
		},
	})

	yearComparisonType := graphql.NewObject(graphql.ObjectConfig{
		Name: "YearComparison",
		Fields: graphql.Fields{
			"year":   &graphql.Field{Type: graphql.Int},
			"counts": &graphql.Field{Type: graphql.NewList(graphql.Int)},
		},
	})

	summaryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "DatasetSummary",
		Fields: graphql.Fields{
			"source":       &graphql.Field{Type: graphql.String},
			"rows":         &graphql.Field{Type: graphql.Int},
			"undated_rows": &graphql.Field{Type: graphql.Int},
			"warnings":     &graphql.Field{Type: graphql.Int},
			"first_date":   &graphql.Field{Type: graphql.String},
			"last_date":    &graphql.Field{Type: graphql.String},
			"years":        &graphql.Field{Type: graphql.NewList(graphql.Int)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"datasetSummary": &graphql.Field{
				Type:        summaryType,
				Description: "Row counts and date range of the loaded dataset",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					s, err := deps.Fires.Summary(p.Context)
					if err != nil {
						return nil, err
					}
					m := map[string]interface{}{
						"source":       s.Source,
						"rows":         s.Rows,
						"undated_rows": s.UndatedRows,
						"warnings":     s.Warnings,
						"years":        s.Years,
					}
					if s.FirstDate != nil {
						m["first_date"] = s.FirstDate.Format(time.DateOnly)
						m["last_date"] = s.LastDate.Format(time.DateOnly)
					}
					return m, nil
				},
			},
			"yearlyCounts": &graphql.Field{
				Type:        graphql.NewList(countType),
				Description: "Fire detections per year",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Fires.YearlyCounts(p.Context)
				},
			},
			"monthlyCounts": &graphql.Field{
				Type:        graphql.NewList(countType),
				Description: "Fire detections per calendar month across all years",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Fires.MonthlyCounts(p.Context)
				},
			},
			"seasonalCounts": &graphql.Field{
				Type:        graphql.NewList(seasonCountType),
				Description: "Fire detections per season",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					counts, err := deps.Fires.SeasonalCounts(p.Context)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(counts))
					for i, sc := range counts {
						out[i] = map[string]interface{}{"season": string(sc.Season), "count": sc.Count}
					}
					return out, nil
				},
			},
			"compareYears": &graphql.Field{
				Type:        graphql.NewList(yearComparisonType),
				Description: "Monthly detections for each requested year",
				Args: graphql.FieldConfigArgument{
					"years": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.NewList(graphql.Int))},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var years []int
					for _, y := range p.Args["years"].([]interface{}) {
						years = append(years, y.(int))
					}
					cmp, err := deps.Fires.CompareYears(p.Context, years)
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, len(cmp))
					for i, yc := range cmp {
						out[i] = map[string]interface{}{"year": yc.Year, "counts": yc.Counts[:]}
					}
					return out, nil
				},
			},
			"regions": &graphql.Field{
				Type:        graphql.NewList(regionType),
				Description: "Fire activity per configured region",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Fires.Regions(p.Context)
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
