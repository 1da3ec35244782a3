package services

import (
	"context"

	"newsboard/internal/apperr"
	"newsboard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Activity 一条待记账的积分行为
type Activity struct {
	UserID uint
	Type   models.ActivityType
	Entity models.EntityRef
	// Points 为 nil 时使用 models.ActivityPoints 中的默认值
	Points *int
	// IdempotencyKey 非空时同一个 key 只记一次
	IdempotencyKey string
}

// KarmaLedger 积分流水。每次追加后用流水总和刷新 users.karma_score
type KarmaLedger struct {
	db   *gorm.DB
	inTx bool
}

func NewKarmaLedger(conn *gorm.DB) *KarmaLedger {
	return &KarmaLedger{db: conn}
}

// WithTx 绑定到调用方的事务，和触发积分的写操作一起提交
func (k *KarmaLedger) WithTx(tx *gorm.DB) *KarmaLedger {
	return &KarmaLedger{db: tx, inTx: true}
}

// Record 追加积分流水并刷新用户 karma_score。
// 返回 false 表示 IdempotencyKey 重复，本次没有记账。
func (k *KarmaLedger) Record(ctx context.Context, a Activity) (bool, error) {
	if _, ok := models.ActivityPoints[a.Type]; !ok {
		return false, apperr.Validation("Invalid activity type", "activity_type is not included in the list")
	}

	var recorded bool
	err := k.transaction(ctx, func(tx *gorm.DB) error {
		var err error
		recorded, err = appendActivity(tx, a)
		return err
	})
	return recorded, err
}

func (k *KarmaLedger) transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if k.inTx {
		return fn(k.db.WithContext(ctx))
	}
	return k.db.WithContext(ctx).Transaction(fn)
}

func appendActivity(tx *gorm.DB, a Activity) (bool, error) {
	// 1. 锁定用户行，保证并发追加时 karma_score 的重算能看到彼此的流水
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, a.UserID).Error; err != nil {
		return false, apperr.FromDB(err, "User", "")
	}

	points := models.ActivityPoints[a.Type]
	if a.Points != nil {
		points = *a.Points
	}

	// 2. 创建流水记录
	entry := models.UserActivity{
		UserID:       a.UserID,
		ActivityType: a.Type,
		EntityType:   a.Entity.Kind,
		EntityID:     a.Entity.ID,
		Points:       points,
	}
	if a.IdempotencyKey != "" {
		key := a.IdempotencyKey
		entry.IdempotencyKey = &key
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "idempotency_key"}},
		DoNothing: true,
	}).Create(&entry)
	if res.Error != nil {
		return false, apperr.Internal("record activity", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	// 3. 刷新缓存的 karma_score
	if err := refreshKarma(tx, a.UserID); err != nil {
		return false, err
	}
	return true, nil
}

func refreshKarma(tx *gorm.DB, userID uint) error {
	err := tx.Exec(`UPDATE users SET karma_score = (
		SELECT COALESCE(SUM(points), 0) FROM user_activities WHERE user_id = ?
	) WHERE id = ?`, userID, userID).Error
	if err != nil {
		return apperr.Internal("refresh karma", err)
	}
	return nil
}

// Total 流水中的积分总和
func (k *KarmaLedger) Total(ctx context.Context, userID uint) (int, error) {
	var total int
	err := k.db.WithContext(ctx).Model(&models.UserActivity{}).
		Select("COALESCE(SUM(points), 0)").
		Where("user_id = ?", userID).
		Scan(&total).Error
	if err != nil {
		return 0, apperr.Internal("sum activities", err)
	}
	return total, nil
}

// Recalculate 用流水重新校准单个用户的 karma_score
func (k *KarmaLedger) Recalculate(ctx context.Context, userID uint) (int, error) {
	err := k.transaction(ctx, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&user, userID).Error; err != nil {
			return apperr.FromDB(err, "User", "")
		}
		return refreshKarma(tx, userID)
	})
	if err != nil {
		return 0, err
	}

	var user models.User
	if err := k.db.WithContext(ctx).Select("karma_score").First(&user, userID).Error; err != nil {
		return 0, apperr.FromDB(err, "User", "")
	}
	return user.KarmaScore, nil
}

// RecalculateAll 校准所有用户，返回 karma_score 有变化的用户数
func (k *KarmaLedger) RecalculateAll(ctx context.Context) (int64, error) {
	res := k.db.WithContext(ctx).Exec(`UPDATE users u SET karma_score = s.total
		FROM (
			SELECT users.id, COALESCE(SUM(a.points), 0) AS total
			FROM users LEFT JOIN user_activities a ON a.user_id = users.id
			GROUP BY users.id
		) s
		WHERE u.id = s.id AND u.karma_score <> s.total`)
	if res.Error != nil {
		return 0, apperr.Internal("recalculate karma", res.Error)
	}
	return res.RowsAffected, nil
}
