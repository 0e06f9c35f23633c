package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"PharmaBot/internal/models"
)

func (c *Client) DiseaseTypes(ctx context.Context) ([]models.DiseaseType, error) {
	var out []models.DiseaseType
	err := c.do(ctx, request{
		op:     "catalog.disease_types",
		method: http.MethodGet,
		path:   "/disease-types/",
		out:    &out,
	})
	return out, err
}

// Drugs - препараты одной категории.
func (c *Client) Drugs(ctx context.Context, diseaseTypeID int64) ([]models.Drug, error) {
	q := url.Values{}
	q.Set("disease_type_id", strconv.FormatInt(diseaseTypeID, 10))
	var out []models.Drug
	err := c.do(ctx, request{
		op:     "catalog.drugs",
		method: http.MethodGet,
		path:   "/drugs/",
		query:  q,
		out:    &out,
	})
	return out, err
}
