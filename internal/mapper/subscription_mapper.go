package mapper

import (
	"encoding/json"
	"time"

	"takahub-be/internal/entity"
	"takahub-be/internal/model"

	"gorm.io/datatypes"
)

const collectionDateLayout = "2006-01-02"

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) PlanToEntity(p *model.SubscriptionPlan) *entity.SubscriptionPlan {
	if p == nil {
		return nil
	}
	return &entity.SubscriptionPlan{
		Id:           p.Id,
		AgencyId:     p.AgencyId,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Currency:     p.Currency,
		DurationDays: p.DurationDays,
		PlanType:     entity.PlanType(p.PlanType),
		Features:     decodeStringList(p.Features),
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) PlanToModel(p *entity.SubscriptionPlan) *model.SubscriptionPlan {
	if p == nil {
		return nil
	}
	return &model.SubscriptionPlan{
		Id:           p.Id,
		AgencyId:     p.AgencyId,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Currency:     p.Currency,
		DurationDays: p.DurationDays,
		PlanType:     string(p.PlanType),
		Features:     encodeStringList(p.Features),
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (m *SubscriptionMapper) AgencyToEntity(a *model.Agency) *entity.Agency {
	if a == nil {
		return nil
	}
	return &entity.Agency{
		Id:             a.Id,
		Name:           a.Name,
		CollectionDays: decodeStringList(a.CollectionDays),
		County:         a.County,
		IsActive:       a.IsActive,
	}
}

func (m *SubscriptionMapper) SubscriptionToEntity(s *model.UserSubscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		Id:                    s.Id,
		UserId:                s.UserId,
		AgencyId:              s.AgencyId,
		PlanId:                s.PlanId,
		Status:                entity.SubscriptionStatus(s.Status),
		PaymentStatus:         entity.PaymentStatus(s.PaymentStatus),
		PaymentMethod:         s.PaymentMethod,
		Amount:                s.Amount,
		Currency:              s.Currency,
		CollectionDays:        decodeStringList(s.CollectionDays),
		CustomCollectionDates: decodeDateList(s.CustomCollectionDates),
		StartDate:             s.StartDate,
		EndDate:               s.EndDate,
		Metadata:              decodeMap(s.Metadata),
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) SubscriptionToModel(s *entity.Subscription) *model.UserSubscription {
	if s == nil {
		return nil
	}
	return &model.UserSubscription{
		Id:                    s.Id,
		UserId:                s.UserId,
		AgencyId:              s.AgencyId,
		PlanId:                s.PlanId,
		Status:                string(s.Status),
		PaymentStatus:         string(s.PaymentStatus),
		PaymentMethod:         s.PaymentMethod,
		Amount:                s.Amount,
		Currency:              s.Currency,
		CollectionDays:        encodeStringList(s.CollectionDays),
		CustomCollectionDates: encodeDateList(s.CustomCollectionDates),
		StartDate:             s.StartDate,
		EndDate:               s.EndDate,
		Metadata:              encodeMap(s.Metadata),
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

// JSON column helpers shared by the mappers in this package.

func encodeStringList(values []string) datatypes.JSON {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func decodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}

func encodeDateList(dates []time.Time) datatypes.JSON {
	if len(dates) == 0 {
		return nil
	}
	values := make([]string, len(dates))
	for i, d := range dates {
		values[i] = d.Format(collectionDateLayout)
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func decodeDateList(raw datatypes.JSON) []time.Time {
	values := decodeStringList(raw)
	if values == nil {
		return nil
	}
	dates := make([]time.Time, 0, len(values))
	for _, v := range values {
		if d, err := time.Parse(collectionDateLayout, v); err == nil {
			dates = append(dates, d)
		}
	}
	return dates
}

func encodeMap(values map[string]interface{}) datatypes.JSON {
	if values == nil {
		values = map[string]interface{}{}
	}
	b, _ := json.Marshal(values)
	return datatypes.JSON(b)
}

func decodeMap(raw datatypes.JSON) map[string]interface{} {
	if len(raw) == 0 {
		return nil
	}
	var values map[string]interface{}
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	return values
}
