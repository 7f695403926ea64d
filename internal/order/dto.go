package order

import (
	"time"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	"github.com/frahmantamala/marketplace-payments/internal/core/common/validation"
)

type CreateOrderDTO struct {
	FreelancerID int64      `json:"freelancer_id"`
	GigID        int64      `json:"gig_id"`
	PackageType  string     `json:"package_type"`
	AmountKobo   int64      `json:"amount_kobo"`
	Currency     string     `json:"currency"`
	Requirements string     `json:"requirements"`
	DeliveryDate *time.Time `json:"delivery_date,omitempty"`
}

func (d *CreateOrderDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("freelancer_id", d.FreelancerID).Required()
	validator.Field("gig_id", d.GigID).Required()
	validator.Field("amount_kobo", d.AmountKobo).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("package_type", d.PackageType).Required().MaxLength(50)
	validator.Field("requirements", d.Requirements).MaxLength(5000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type DeliverOrderDTO struct {
	Message  string   `json:"message"`
	FileURLs []string `json:"file_urls,omitempty"`
}

func (d *DeliverOrderDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("message", d.Message).Required().MaxLength(5000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type CompleteOrderDTO struct {
	Rating  int64  `json:"rating"`
	Comment string `json:"comment"`
}

func (d *CompleteOrderDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("rating", d.Rating).Required().IntRange(1, 5, errors.ErrCodeInvalidRating)
	validator.Field("comment", d.Comment).MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type DisputeOrderDTO struct {
	Reason string `json:"reason"`
}

func (d *DisputeOrderDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("reason", d.Reason).Required().MinLength(10).MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// DisputeResolution values an admin may choose. FavorClient refunds by
// cancelling; the other two settle in the freelancer's favour.
const (
	ResolutionFavorClient     = "favor_client"
	ResolutionFavorFreelancer = "favor_freelancer"
	ResolutionPartialRefund   = "partial_refund"
)

type ResolveDisputeDTO struct {
	Resolution string `json:"resolution"`
	Notes      string `json:"notes"`
}

func (d *ResolveDisputeDTO) Validate() error {
	switch d.Resolution {
	case ResolutionFavorClient, ResolutionFavorFreelancer, ResolutionPartialRefund:
	default:
		return errors.NewValidationFieldError("resolution",
			"resolution must be one of favor_client, favor_freelancer, partial_refund",
			errors.ErrCodeValidationFailed)
	}

	validator := validation.NewValidator()
	validator.Field("notes", d.Notes).Required().MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type CancelOrderDTO struct {
	Reason string `json:"reason"`
}

func (d *CancelOrderDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("reason", d.Reason).Required().MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
