package commissions

import (
	"time"

	"github.com/shopspring/decimal"
)

type CommissionStatus string

const (
	CommissionOpen             CommissionStatus = "open"
	CommissionAwaitingProposal CommissionStatus = "awaiting_proposal"
	CommissionInProgress       CommissionStatus = "in_progress"
	CommissionCompleted        CommissionStatus = "completed"
	CommissionCancelled        CommissionStatus = "cancelled"
)

// Commission is a client's request for custom artwork. A nil ArtistID means
// the commission is open to every artist.
type Commission struct {
	ID          string `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID    uint   `gorm:"not null;index" json:"client_id"`
	ArtistID    *uint  `gorm:"index" json:"artist_id,omitempty"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	BudgetMin decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"budget_min"`
	BudgetMax decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"budget_max"`
	Deadline  *time.Time      `json:"deadline,omitempty"`

	Status             CommissionStatus `gorm:"type:text;not null;index" json:"status"`
	AcceptedProposalID *string          `gorm:"type:uuid" json:"accepted_proposal_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Commission) Public() bool { return c.ArtistID == nil }

type ProposalStatus string

const (
	ProposalPending  ProposalStatus = "pending"
	ProposalAccepted ProposalStatus = "accepted"
	ProposalRejected ProposalStatus = "rejected"
)

// MinProposedPrice is the lowest price an artist may propose.
var MinProposedPrice = decimal.NewFromInt(100)

type Proposal struct {
	ID                  string          `gorm:"type:uuid;primaryKey" json:"id"`
	CommissionID        string          `gorm:"type:uuid;not null;index" json:"commission_id"`
	ArtistID            uint            `gorm:"not null;index" json:"artist_id"`
	ProposalText        string          `gorm:"type:text;not null" json:"proposal_text"`
	ProposedPrice       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"proposed_price"`
	EstimatedCompletion *time.Time      `json:"estimated_completion,omitempty"`
	Status              ProposalStatus  `gorm:"type:text;not null" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectStatus string

const (
	ProjectAwaitingPayment       ProjectStatus = "awaiting_payment"
	ProjectInProgress            ProjectStatus = "in_progress"
	ProjectPendingProgressReport ProjectStatus = "pending_progress_report"
	ProjectPendingFinalDelivery  ProjectStatus = "pending_final_delivery"
	ProjectPendingClientApproval ProjectStatus = "pending_client_approval"
	ProjectCompleted             ProjectStatus = "completed"
	ProjectCancelled             ProjectStatus = "cancelled"
)

// Project is created once per commission, when a proposal is accepted.
type Project struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	CommissionID string          `gorm:"type:uuid;not null;uniqueIndex" json:"commission_id"`
	ProposalID   string          `gorm:"type:uuid;not null;uniqueIndex" json:"proposal_id"`
	ClientID     uint            `gorm:"not null;index" json:"client_id"`
	ArtistID     uint            `gorm:"not null;index" json:"artist_id"`
	FinalPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"final_price"`
	Status       ProjectStatus   `gorm:"type:text;not null;index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type UpdateType string

const (
	UpdateProgressReport UpdateType = "progress_report"
	UpdateFinalDelivery  UpdateType = "final_delivery"
)

type UpdateStatus string

const (
	UpdatePending          UpdateStatus = "pending"
	UpdateSubmitted        UpdateStatus = "submitted"
	UpdateApproved         UpdateStatus = "approved"
	UpdateRequiresRevision UpdateStatus = "requires_revision"
)

type ProjectUpdate struct {
	ID          string       `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID   string       `gorm:"type:uuid;not null;index" json:"project_id"`
	UpdateType  UpdateType   `gorm:"type:text;not null" json:"update_type"`
	Status      UpdateStatus `gorm:"type:text;not null" json:"status"`
	Description string       `gorm:"type:text" json:"description"`
	Feedback    string       `gorm:"type:text" json:"feedback,omitempty"`

	Files []ProjectUpdateFile `gorm:"foreignKey:ProjectUpdateID;constraint:OnDelete:CASCADE;" json:"files"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ProjectUpdateFile struct {
	ID              uint   `gorm:"primaryKey" json:"-"`
	ProjectUpdateID string `gorm:"type:uuid;not null;index" json:"-"`
	Path            string `gorm:"not null" json:"path"`
	Position        int    `gorm:"not null" json:"-"`
}
