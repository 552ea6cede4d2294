package handler

import (
	"time"

	"github.com/go-playground/validator/v10"

	"registrar/internal/school/models"
	dErrors "registrar/pkg/domain-errors"
)

var validate = validator.New()

// CreateSchoolRequest is the POST body. PrincipalName may be blank; the
// service substitutes the default placeholder.
type CreateSchoolRequest struct {
	Name          string `json:"name" validate:"required,max=200"`
	Address       string `json:"address" validate:"required,max=300"`
	PrincipalName string `json:"principalName" validate:"omitempty,max=150"`
}

func (r CreateSchoolRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid school payload: "+err.Error())
	}
	return nil
}

// UpdateSchoolRequest is the PUT body. The id must match the path.
type UpdateSchoolRequest struct {
	ID            int64  `json:"id" validate:"required,gt=0"`
	Name          string `json:"name" validate:"required,max=200"`
	Address       string `json:"address" validate:"required,max=300"`
	PrincipalName string `json:"principalName" validate:"required,max=150"`
}

func (r UpdateSchoolRequest) Validate(pathID int64) error {
	if err := validate.Struct(r); err != nil {
		return dErrors.New(dErrors.CodeValidation, "invalid school payload: "+err.Error())
	}
	if r.ID != pathID {
		return dErrors.New(dErrors.CodeValidation, "body id does not match path id")
	}
	return nil
}

// SchoolResponse is the transfer object for a current school.
type SchoolResponse struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	PrincipalName string `json:"principalName"`
	CreatedAt     string `json:"createdAt"`
	RowVersion    int64  `json:"rowVersion"`
}

// VersionResponse is the transfer object for one temporal version.
type VersionResponse struct {
	SchoolResponse
	ValidFrom string `json:"validFrom"`
	ValidTo   string `json:"validTo"`
}

func toSchoolResponse(s models.School) SchoolResponse {
	return SchoolResponse{
		ID:            s.ID,
		Name:          s.Name,
		Address:       s.Address,
		PrincipalName: s.PrincipalName,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339Nano),
		RowVersion:    s.RowVersion,
	}
}

func toSchoolResponses(schools []models.School) []SchoolResponse {
	out := make([]SchoolResponse, 0, len(schools))
	for _, s := range schools {
		out = append(out, toSchoolResponse(s))
	}
	return out
}

func toVersionResponse(v models.Version) VersionResponse {
	return VersionResponse{
		SchoolResponse: toSchoolResponse(v.School),
		ValidFrom:      v.ValidFrom.UTC().Format(time.RFC3339Nano),
		ValidTo:        v.ValidTo.UTC().Format(time.RFC3339Nano),
	}
}

func toVersionResponses(versions []models.Version) []VersionResponse {
	out := make([]VersionResponse, 0, len(versions))
	for _, v := range versions {
		out = append(out, toVersionResponse(v))
	}
	return out
}
