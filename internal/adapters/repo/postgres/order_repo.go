package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/phenrril/prostore/internal/domain"
)

type OrderRepo struct{ db *gorm.DB }

func NewOrderRepo(db *gorm.DB) *OrderRepo { return &OrderRepo{db: db} }

func userNameEmail(db *gorm.DB) *gorm.DB { return db.Select("id", "name", "email") }

func (r *OrderRepo) Create(ctx context.Context, o *domain.Order, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(o).Error; err != nil {
			return err
		}
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}
		if len(o.Items) > 0 {
			if err := tx.Create(&o.Items).Error; err != nil {
				return err
			}
		}
		var c domain.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "id = ?", cartID).Error; err != nil {
			return mapErr(err, "cart")
		}
		c.Clear()
		return tx.Save(&c).Error
	})
}

func (r *OrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	var o domain.Order
	if err := r.db.WithContext(ctx).Preload("Items").Preload("User", userNameEmail).First(&o, "id = ?", id).Error; err != nil {
		return nil, mapErr(err, "order")
	}
	return &o, nil
}

func (r *OrderRepo) SetPaymentResult(ctx context.Context, id uuid.UUID, pr *domain.PaymentResult) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).Where("id = ? AND is_paid = ?", id, false).Update("payment_result", *pr)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyPaid
	}
	return nil
}

// MarkPaid flips the paid flag first so a concurrent second payment blocks on the order row and then
// matches nothing. Stock is then taken per item; any shortfall rolls the whole payment back.
func (r *OrderRepo) MarkPaid(ctx context.Context, id uuid.UUID, pr *domain.PaymentResult, at time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		set := map[string]any{"is_paid": true, "paid_at": at}
		if pr != nil {
			set["payment_result"] = *pr
		}
		res := tx.Model(&domain.Order{}).Where("id = ? AND is_paid = ?", id, false).Updates(set)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.ErrAlreadyPaid
		}
		var items []domain.OrderItem
		if err := tx.Where("order_id = ?", id).Find(&items).Error; err != nil {
			return err
		}
		for _, it := range items {
			if err := decrementStock(tx, it.ProductID, it.Qty); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *OrderRepo) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND is_paid = ? AND is_delivered = ?", id, true, false).
		Updates(map[string]any{"is_delivered": true, "delivered_at": at})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	var o domain.Order
	if err := r.db.WithContext(ctx).Select("id", "is_paid", "is_delivered").First(&o, "id = ?", id).Error; err != nil {
		return mapErr(err, "order")
	}
	if !o.IsPaid {
		return domain.ErrNotPaid
	}
	return domain.ErrAlreadyDelivered
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID uuid.UUID, page, pageSize int) ([]domain.Order, int64, error) {
	var list []domain.Order
	q := r.db.WithContext(ctx).Model(&domain.Order{}).Where("user_id = ?", userID)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Order("created_at desc").Offset(offset(page, pageSize)).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *OrderRepo) List(ctx context.Context, userName string, page, pageSize int) ([]domain.Order, int64, error) {
	var list []domain.Order
	q := r.db.WithContext(ctx).Model(&domain.Order{})
	if userName != "" {
		q = q.Joins("JOIN users ON users.id = orders.user_id").Where("LOWER(users.name) LIKE LOWER(?)", "%"+userName+"%")
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := q.Preload("User", userNameEmail).Order("orders.created_at desc").
		Offset(offset(page, pageSize)).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *OrderRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&domain.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&domain.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domain.NotFound("order")
		}
		return nil
	})
}

func (r *OrderRepo) Summary(ctx context.Context, latest int) (*domain.OrderSummary, error) {
	db := r.db.WithContext(ctx)
	s := &domain.OrderSummary{}
	if err := db.Model(&domain.Order{}).Count(&s.OrdersCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.Product{}).Count(&s.ProductsCount).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&domain.User{}).Count(&s.UsersCount).Error; err != nil {
		return nil, err
	}
	var total decimal.NullDecimal
	if err := db.Model(&domain.Order{}).Select("SUM(total_price)").Scan(&total).Error; err != nil {
		return nil, err
	}
	s.TotalSales = total.Decimal
	s.SalesData = []domain.MonthlySales{}
	if err := db.Raw(`SELECT to_char(created_at, 'MM/YY') AS month, SUM(total_price) AS total_sales
		FROM orders GROUP BY to_char(created_at, 'MM/YY') ORDER BY MIN(created_at)`).Scan(&s.SalesData).Error; err != nil {
		return nil, err
	}
	if err := db.Preload("User", userNameEmail).Order("created_at desc").Limit(latest).Find(&s.LatestOrders).Error; err != nil {
		return nil, err
	}
	return s, nil
}
