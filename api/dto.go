/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupling the domain
  model from the wire contract. Deal values are decimal internally and
  plain numbers on the wire, so the conversion lives here and nowhere else.

NAMING CONVENTION:
  - *DTO: response types returned to clients
  - *Request: request body types from clients (create: plain fields,
    update: pointer fields mapping onto the crm patch types)

SEE ALSO:
  - handlers.go: uses these types
  - crm/types.go: the domain types behind them
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/pulse/crm-engine/crm"
)

// =============================================================================
// CONTACT
// =============================================================================

type ContactDTO struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Company     string   `json:"company"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	LastContact string   `json:"lastContact,omitempty"`
	CreatedAt   string   `json:"createdAt,omitempty"`
}

func toContactDTO(c crm.Contact) ContactDTO {
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}
	return ContactDTO{
		ID:          int(c.ID),
		Name:        c.Name,
		Email:       c.Email,
		Phone:       c.Phone,
		Company:     c.Company,
		Status:      c.Status,
		Tags:        tags,
		LastContact: c.LastContact,
		CreatedAt:   c.CreatedAt,
	}
}

type CreateContactRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Company     string   `json:"company"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
	LastContact string   `json:"lastContact"`
}

func (r CreateContactRequest) toRecord() crm.Contact {
	return crm.Contact{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Company:     r.Company,
		Status:      r.Status,
		Tags:        r.Tags,
		LastContact: r.LastContact,
	}
}

type UpdateContactRequest struct {
	Name        *string   `json:"name"`
	Email       *string   `json:"email"`
	Phone       *string   `json:"phone"`
	Company     *string   `json:"company"`
	Status      *string   `json:"status"`
	Tags        *[]string `json:"tags"`
	LastContact *string   `json:"lastContact"`
}

func (r UpdateContactRequest) toPatch() crm.ContactPatch {
	return crm.ContactPatch{
		Name:        r.Name,
		Email:       r.Email,
		Phone:       r.Phone,
		Company:     r.Company,
		Status:      r.Status,
		Tags:        r.Tags,
		LastContact: r.LastContact,
	}
}

// =============================================================================
// DEAL
// =============================================================================

type DealDTO struct {
	ID            int     `json:"id"`
	Title         string  `json:"title"`
	Value         float64 `json:"value"`
	Stage         string  `json:"stage"`
	ContactID     int     `json:"contactId"`
	Probability   int     `json:"probability"`
	ExpectedClose string  `json:"expectedClose,omitempty"`
	CreatedAt     string  `json:"createdAt,omitempty"`
}

func toDealDTO(d crm.Deal) DealDTO {
	value, _ := d.Value.Float64()
	return DealDTO{
		ID:            int(d.ID),
		Title:         d.Title,
		Value:         value,
		Stage:         d.Stage,
		ContactID:     int(d.ContactID),
		Probability:   d.Probability,
		ExpectedClose: d.ExpectedClose,
		CreatedAt:     d.CreatedAt,
	}
}

func toDealDTOs(deals []crm.Deal) []DealDTO {
	dtos := make([]DealDTO, len(deals))
	for i, d := range deals {
		dtos[i] = toDealDTO(d)
	}
	return dtos
}

type CreateDealRequest struct {
	Title         string  `json:"title"`
	Value         float64 `json:"value"`
	Stage         string  `json:"stage"`
	ContactID     int     `json:"contactId"`
	Probability   int     `json:"probability"`
	ExpectedClose string  `json:"expectedClose"`
}

func (r CreateDealRequest) toRecord() crm.Deal {
	return crm.Deal{
		Title:         r.Title,
		Value:         decimal.NewFromFloat(r.Value),
		Stage:         r.Stage,
		ContactID:     crm.ID(r.ContactID),
		Probability:   r.Probability,
		ExpectedClose: r.ExpectedClose,
	}
}

type UpdateDealRequest struct {
	Title         *string  `json:"title"`
	Value         *float64 `json:"value"`
	Stage         *string  `json:"stage"`
	ContactID     *int     `json:"contactId"`
	Probability   *int     `json:"probability"`
	ExpectedClose *string  `json:"expectedClose"`
}

func (r UpdateDealRequest) toPatch() crm.DealPatch {
	p := crm.DealPatch{
		Title:         r.Title,
		Stage:         r.Stage,
		Probability:   r.Probability,
		ExpectedClose: r.ExpectedClose,
	}
	if r.Value != nil {
		v := decimal.NewFromFloat(*r.Value)
		p.Value = &v
	}
	if r.ContactID != nil {
		id := crm.ID(*r.ContactID)
		p.ContactID = &id
	}
	return p
}

// MoveDealRequest is the drag-end payload: the deal (or card slot) the
// dragged deal was released over. A zero overId means "released outside any
// valid zone".
type MoveDealRequest struct {
	OverID int `json:"overId"`
}

// MoveDealResponse reports the commit outcome. For every no-op case Moved is
// false and the deal's stage is unchanged.
type MoveDealResponse struct {
	Moved bool     `json:"moved"`
	Deal  *DealDTO `json:"deal,omitempty"`
	From  string   `json:"from,omitempty"`
	To    string   `json:"to,omitempty"`
}

// =============================================================================
// MESSAGE
// =============================================================================

type MessageDTO struct {
	ID             int    `json:"id"`
	Sender         string `json:"sender"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	Status         string `json:"status"`
	Source         string `json:"source,omitempty"`
	HasAttachments bool   `json:"hasAttachments"`
	Timestamp      string `json:"timestamp,omitempty"`
}

func toMessageDTO(m crm.Message) MessageDTO {
	return MessageDTO{
		ID:             int(m.ID),
		Sender:         m.Sender,
		Subject:        m.Subject,
		Content:        m.Content,
		Status:         m.Status,
		Source:         m.Source,
		HasAttachments: m.HasAttachments,
		Timestamp:      m.Timestamp,
	}
}

type CreateMessageRequest struct {
	Sender         string `json:"sender"`
	Subject        string `json:"subject"`
	Content        string `json:"content"`
	Status         string `json:"status"`
	Source         string `json:"source"`
	HasAttachments bool   `json:"hasAttachments"`
}

func (r CreateMessageRequest) toRecord() crm.Message {
	status := r.Status
	if status == "" {
		status = crm.MessageUnread
	}
	return crm.Message{
		Sender:         r.Sender,
		Subject:        r.Subject,
		Content:        r.Content,
		Status:         status,
		Source:         r.Source,
		HasAttachments: r.HasAttachments,
	}
}

type UpdateMessageRequest struct {
	Sender         *string `json:"sender"`
	Subject        *string `json:"subject"`
	Content        *string `json:"content"`
	Status         *string `json:"status"`
	Source         *string `json:"source"`
	HasAttachments *bool   `json:"hasAttachments"`
}

func (r UpdateMessageRequest) toPatch() crm.MessagePatch {
	return crm.MessagePatch{
		Sender:         r.Sender,
		Subject:        r.Subject,
		Content:        r.Content,
		Status:         r.Status,
		Source:         r.Source,
		HasAttachments: r.HasAttachments,
	}
}

// =============================================================================
// ACTIVITY
// =============================================================================

type ActivityDTO struct {
	ID          int               `json:"id"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	ContactID   int               `json:"contactId"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Timestamp   string            `json:"timestamp,omitempty"`
}

func toActivityDTO(a crm.Activity) ActivityDTO {
	return ActivityDTO{
		ID:          int(a.ID),
		Type:        a.Type,
		Description: a.Description,
		ContactID:   int(a.ContactID),
		Metadata:    a.Metadata,
		Timestamp:   a.Timestamp,
	}
}

type CreateActivityRequest struct {
	Type        string            `json:"type"`
	Description string            `json:"description"`
	ContactID   int               `json:"contactId"`
	Metadata    map[string]string `json:"metadata"`
}

func (r CreateActivityRequest) toRecord() crm.Activity {
	return crm.Activity{
		Type:        r.Type,
		Description: r.Description,
		ContactID:   crm.ID(r.ContactID),
		Metadata:    r.Metadata,
	}
}

type UpdateActivityRequest struct {
	Type        *string            `json:"type"`
	Description *string            `json:"description"`
	ContactID   *int               `json:"contactId"`
	Metadata    *map[string]string `json:"metadata"`
}

func (r UpdateActivityRequest) toPatch() crm.ActivityPatch {
	p := crm.ActivityPatch{
		Type:        r.Type,
		Description: r.Description,
		Metadata:    r.Metadata,
	}
	if r.ContactID != nil {
		id := crm.ID(*r.ContactID)
		p.ContactID = &id
	}
	return p
}

// =============================================================================
// PIPELINE
// =============================================================================

type StageColumnDTO struct {
	Name  string    `json:"name"`
	Color string    `json:"color,omitempty"`
	Count int       `json:"count"`
	Total float64   `json:"total"`
	Deals []DealDTO `json:"deals"`
}

type PipelineTotalsDTO struct {
	TotalValue     float64 `json:"totalValue"`
	WonValue       float64 `json:"wonValue"`
	ActiveCount    int     `json:"activeCount"`
	ConversionRate int     `json:"conversionRate"`
}

type PipelineDTO struct {
	Stages []StageColumnDTO  `json:"stages"`
	Totals PipelineTotalsDTO `json:"totals"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
