package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"PharmaBot/internal/models"
)

type patientStatusPatch struct {
	Status string `json:"status"`
}

// CreatePatient регистрирует пациента одним вызовом. key защищает от повторной регистрации.
func (c *Client) CreatePatient(ctx context.Context, p models.PatientCreate, key string) (*models.Patient, error) {
	var out models.Patient
	err := c.do(ctx, request{
		op:      "patients.create",
		method:  http.MethodPost,
		path:    "/patients/",
		body:    p,
		idemKey: key,
		out:     &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPatient(ctx context.Context, patientID int64) (*models.Patient, error) {
	var out models.Patient
	err := c.do(ctx, request{
		op:     "patients.get",
		method: http.MethodGet,
		path:   "/patients/" + strconv.FormatInt(patientID, 10),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPatientByTelegramID(ctx context.Context, telegramID int64) (*models.Patient, error) {
	var out models.Patient
	err := c.do(ctx, request{
		op:     "patients.by_telegram_id",
		method: http.MethodGet,
		path:   "/patients/by-telegram-id/" + strconv.FormatInt(telegramID, 10),
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePatient - PATCH /patients/{id}; сейчас используется для назначения консультанта.
func (c *Client) UpdatePatient(ctx context.Context, patientID int64, upd models.PatientUpdate) (*models.Patient, error) {
	var out models.Patient
	err := c.do(ctx, request{
		op:     "patients.update",
		method: http.MethodPatch,
		path:   "/patients/" + strconv.FormatInt(patientID, 10),
		body:   upd,
		out:    &out,
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePatientStatus(ctx context.Context, patientID int64, status string) error {
	return c.do(ctx, request{
		op:     "patients.update_status",
		method: http.MethodPatch,
		path:   "/patients/" + strconv.FormatInt(patientID, 10) + "/status",
		body:   patientStatusPatch{Status: status},
	})
}

// UnassignedDates - даты, в которые есть пациенты без консультанта.
func (c *Client) UnassignedDates(ctx context.Context) ([]string, error) {
	var out []string
	err := c.do(ctx, request{
		op:     "patients.unassigned_dates",
		method: http.MethodGet,
		path:   "/patients/unassigned-dates",
		out:    &out,
	})
	return out, err
}

func (c *Client) PatientsByDate(ctx context.Context, date string) ([]models.Patient, error) {
	var out []models.Patient
	err := c.do(ctx, request{
		op:     "patients.by_date",
		method: http.MethodGet,
		path:   "/patients/by-date/" + url.PathEscape(date),
		out:    &out,
	})
	return out, err
}
