package catalog

import (
	"strings"

	"github.com/ymrpradenasfz/pascucci-smart-inventory/internal/domain/shared"
)

// DeliveryFrequency is how often a supplier delivers
type DeliveryFrequency string

const (
	FrequencyWeekly   DeliveryFrequency = "semanal"
	FrequencyBiweekly DeliveryFrequency = "quincenal"
	FrequencyMonthly  DeliveryFrequency = "mensual"
	FrequencyOnDemand DeliveryFrequency = "bajo demanda"
)

// IsValid reports whether f is a known frequency
func (f DeliveryFrequency) IsValid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyOnDemand:
		return true
	}
	return false
}

// Supplier delivers products that are received as lots
type Supplier struct {
	shared.BaseEntity
	Name      string
	Contact   string
	Frequency DeliveryFrequency
	Notes     string
}

// NewSupplier creates a supplier
func NewSupplier(name, contact string, frequency DeliveryFrequency, notes string) (*Supplier, error) {
	s := &Supplier{BaseEntity: shared.NewBaseEntity()}
	if err := s.apply(name, contact, frequency, notes); err != nil {
		return nil, err
	}
	return s, nil
}

// Update replaces the supplier attributes
func (s *Supplier) Update(name, contact string, frequency DeliveryFrequency, notes string) error {
	if err := s.apply(name, contact, frequency, notes); err != nil {
		return err
	}
	s.Touch()
	return nil
}

func (s *Supplier) apply(name, contact string, frequency DeliveryFrequency, notes string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}
	if frequency == "" {
		frequency = FrequencyWeekly
	}
	if !frequency.IsValid() {
		return shared.NewDomainError("INVALID_FREQUENCY", "Unknown delivery frequency: "+string(frequency))
	}
	s.Name = name
	s.Contact = strings.TrimSpace(contact)
	s.Frequency = frequency
	s.Notes = notes
	return nil
}
