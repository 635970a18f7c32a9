package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/milkbook/milkbook/internal/customer/domain"
	identitydomain "github.com/milkbook/milkbook/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *identitydomain.User, customer *domain.Customer) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		customer.UserID = user.ID
		return tx.Create(customer).Error
	})
}

func (r *repo) FindProfileByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Profile, error) {
	var profile domain.Profile
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, u.name, u.phone, c.address, c.area,
		        c.usual_quantity, c.rate_per_liter, c.delivery_man_id
		 FROM customers c
		 JOIN users u ON c.user_id = u.id
		 WHERE c.id = ?`,
		id,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.ID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repo) FindActiveRate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ActiveRate, error) {
	var rate domain.ActiveRate
	err := db.WithContext(ctx).Raw(
		`SELECT c.id AS customer_id, c.user_id, c.rate_per_liter
		 FROM customers c
		 JOIN users u ON c.user_id = u.id
		 WHERE c.id = ? AND u.is_active = true`,
		id,
	).Scan(&rate).Error
	if err != nil {
		return nil, err
	}
	if rate.CustomerID == 0 {
		return nil, nil
	}
	return &rate, nil
}

func (r *repo) ListByAgent(ctx context.Context, db *gorm.DB, agentID snowflake.ID, date time.Time) ([]domain.AgentCustomer, error) {
	var customers []domain.AgentCustomer
	err := db.WithContext(ctx).Raw(
		`SELECT c.id, u.name, u.phone, c.address, c.area,
		        c.usual_quantity, c.rate_per_liter,
		        d.quantity AS today_quantity
		 FROM customers c
		 JOIN users u ON c.user_id = u.id
		 LEFT JOIN deliveries d ON c.id = d.customer_id AND d.delivery_date = ?
		 WHERE c.delivery_man_id = ? AND u.is_active = true
		 ORDER BY c.area, u.name`,
		date,
		agentID,
	).Scan(&customers).Error
	if err != nil {
		return nil, err
	}
	for i := range customers {
		if customers[i].TodayQuantity != nil {
			customers[i].TodayStatus = domain.StatusComplete
		} else {
			customers[i].TodayStatus = domain.StatusPending
		}
	}
	return customers, nil
}

func (r *repo) UpdatePartial(ctx context.Context, db *gorm.DB, id snowflake.ID, userFields, customerFields map[string]any) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(userFields) > 0 {
			err := tx.Model(&identitydomain.User{}).
				Where("id = (SELECT user_id FROM customers WHERE id = ?)", id).
				Updates(userFields).Error
			if err != nil {
				return err
			}
		}
		if len(customerFields) > 0 {
			return tx.Model(&domain.Customer{}).
				Where("id = ?", id).
				Updates(customerFields).Error
		}
		return nil
	})
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Model(&identitydomain.User{}).
		Where("id = (SELECT user_id FROM customers WHERE id = ?)", id).
		Update("is_active", false).Error
}

func (r *repo) ListMonthDeliveries(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to time.Time) ([]domain.MonthDelivery, error) {
	var deliveries []domain.MonthDelivery
	err := db.WithContext(ctx).Raw(
		`SELECT delivery_date AS date, quantity, total_amount AS amount, rate_per_liter AS rate
		 FROM deliveries
		 WHERE customer_id = ? AND delivery_date >= ? AND delivery_date < ?
		 ORDER BY delivery_date`,
		id,
		from,
		to,
	).Scan(&deliveries).Error
	if err != nil {
		return nil, err
	}
	return deliveries, nil
}
