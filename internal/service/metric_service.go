package service

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/nsxzhou1114/cms-api/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MySQL错误码
const (
	mysqlErrDuplicateEntry  = 1062
	mysqlErrLockWaitTimeout = 1205
	mysqlErrDeadlock        = 1213
)

const metricRetryAttempts = 3

// errMetricRaceLost 条件插入未生效而本事务快照中又看不到胜出方的记录，
// 需要在新事务中重新读取
var errMetricRaceLost = errors.New("统计记录并发写入，需重新读取")

// RecordMetricInput 记录浏览/分享的访客信息
type RecordMetricInput struct {
	ArticleID   uint
	VisitorUUID string // 首次访问时为空
	VisitorIP   string
}

// MetricCounts 文章的浏览与分享数
type MetricCounts struct {
	Views  int64 `json:"views"`
	Shares int64 `json:"shares"`
}

// MetricService 浏览/分享统计服务，同一访客在窗口期内只计一次
type MetricService struct {
	db     *gorm.DB
	log    *zap.SugaredLogger
	window time.Duration
	now    func() time.Time
	insert func(tx *gorm.DB, kind model.MetricKind, in RecordMetricInput, visitorUUID string, now, since time.Time) (bool, error)
}

// NewMetricService 创建统计服务实例
func NewMetricService(db *gorm.DB, log *zap.SugaredLogger, window time.Duration) *MetricService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	s := &MetricService{db: db, log: log, window: window, now: time.Now}
	s.insert = s.insertIfAbsent
	return s
}

// Record 记录一次浏览或分享，返回访客应持有的UUID。
// 访客以IP或UUID任一匹配即视为同一人，窗口内重复访问返回已有记录的UUID。
func (s *MetricService) Record(ctx context.Context, kind model.MetricKind, in RecordMetricInput) (string, error) {
	if err := kind.Validate(); err != nil {
		return "", invalidArgument("%v", err)
	}
	if in.ArticleID == 0 {
		return "", invalidArgument("文章ID不能为空")
	}
	if in.VisitorIP == "" || net.ParseIP(in.VisitorIP) == nil {
		return "", invalidArgument("访客IP无效: %q", in.VisitorIP)
	}

	var visitorUUID string
	err := retry.Do(
		func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			id, err := s.record(ctx, kind, in)
			if err != nil {
				return err
			}
			visitorUUID = id
			return nil
		},
		retry.Attempts(metricRetryAttempts),
		retry.Delay(10*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(isRetryableConflict),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warnf("记录%s冲突，第%d次重试: articleID=%d, err=%v", kind, n+1, in.ArticleID, err)
		}),
	)
	if err != nil {
		return "", err
	}
	return visitorUUID, nil
}

// record 在单个事务内完成查找与条件插入
func (s *MetricService) record(ctx context.Context, kind model.MetricKind, in RecordMetricInput) (string, error) {
	var visitorUUID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := s.now()
		since := now.Add(-s.window)

		existing, err := s.findRecent(tx, kind, in, since)
		if err != nil {
			return err
		}
		if existing != "" {
			visitorUUID = existing
			return nil
		}

		fresh := uuid.NewString()
		inserted, err := s.insert(tx, kind, in, fresh, now, since)
		if err != nil {
			return err
		}
		if inserted {
			visitorUUID = fresh
			return nil
		}

		// 并发请求已先行写入。REPEATABLE READ下普通读仍使用本事务的快照，
		// 读不到对方提交的记录时整体重试
		existing, err = s.findRecent(tx, kind, in, since)
		if err != nil {
			return err
		}
		if existing == "" {
			return errMetricRaceLost
		}
		visitorUUID = existing
		return nil
	})
	return visitorUUID, err
}

// findRecent 查找窗口期内同一访客的最新记录
func (s *MetricService) findRecent(tx *gorm.DB, kind model.MetricKind, in RecordMetricInput, since time.Time) (string, error) {
	var uuids []string
	err := tx.Table(kind.Table()).
		Where("article_id = ? AND (ip_address = ? OR uuid = ?) AND created_at >= ? AND deleted_at IS NULL",
			in.ArticleID, in.VisitorIP, in.VisitorUUID, since).
		Order("created_at DESC").
		Order("id DESC").
		Limit(1).
		Pluck("uuid", &uuids).Error
	if err != nil || len(uuids) == 0 {
		return "", err
	}
	return uuids[0], nil
}

// insertIfAbsent 仅当语句执行时不存在匹配记录才插入，统计子查询放在派生表中以兼容MySQL
func (s *MetricService) insertIfAbsent(tx *gorm.DB, kind model.MetricKind, in RecordMetricInput, visitorUUID string, now, since time.Time) (bool, error) {
	table := kind.Table()
	res := tx.Exec(
		"INSERT INTO "+table+" (article_id, ip_address, uuid, created_at, updated_at) "+
			"SELECT ?, ?, ?, ?, ? FROM (SELECT COUNT(*) AS hits FROM "+table+
			" WHERE article_id = ? AND (ip_address = ? OR uuid = ?) AND created_at >= ? AND deleted_at IS NULL) AS recent"+
			" WHERE recent.hits = 0",
		in.ArticleID, in.VisitorIP, visitorUUID, now, now,
		in.ArticleID, in.VisitorIP, in.VisitorUUID, since,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteForArticle 物理删除文章的全部浏览与分享记录，需在调用方事务内执行
func (s *MetricService) DeleteForArticle(tx *gorm.DB, articleID uint) error {
	if err := tx.Unscoped().Where("article_id = ?", articleID).Delete(&model.View{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Where("article_id = ?", articleID).Delete(&model.Share{}).Error
}

// RestoreForArticle 恢复文章被软删除的浏览与分享记录
func (s *MetricService) RestoreForArticle(tx *gorm.DB, articleID uint) error {
	for _, m := range []interface{}{&model.View{}, &model.Share{}} {
		if err := tx.Unscoped().Model(m).
			Where("article_id = ? AND deleted_at IS NOT NULL", articleID).
			Update("deleted_at", nil).Error; err != nil {
			return err
		}
	}
	return nil
}

// Counts 批量统计文章的浏览与分享数
func (s *MetricService) Counts(ctx context.Context, articleIDs []uint) (map[uint]MetricCounts, error) {
	result := make(map[uint]MetricCounts, len(articleIDs))
	if len(articleIDs) == 0 {
		return result, nil
	}

	type row struct {
		ArticleID uint
		Total     int64
	}
	for _, kind := range []model.MetricKind{model.MetricView, model.MetricShare} {
		var rows []row
		if err := s.db.WithContext(ctx).Table(kind.Table()).
			Select("article_id, COUNT(*) AS total").
			Where("article_id IN ? AND deleted_at IS NULL", articleIDs).
			Group("article_id").
			Scan(&rows).Error; err != nil {
			return nil, err
		}
		for _, r := range rows {
			c := result[r.ArticleID]
			if kind == model.MetricView {
				c.Views = r.Total
			} else {
				c.Shares = r.Total
			}
			result[r.ArticleID] = c
		}
	}
	return result, nil
}

// isRetryableConflict 死锁、锁等待超时、唯一键冲突与并发插入落败可整体重试
func isRetryableConflict(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) || errors.Is(err, errMetricRaceLost) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		switch mysqlErr.Number {
		case mysqlErrDuplicateEntry, mysqlErrLockWaitTimeout, mysqlErrDeadlock:
			return true
		}
	}
	return false
}
