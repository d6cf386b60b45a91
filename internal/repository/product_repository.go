package repository

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound = errors.New("not found")

	// ストアに到達できない（停止中・ゲートウェイ障害など）
	ErrUnavailable = errors.New("store unavailable")

	// ストアの接続情報が無い
	ErrNotConfigured = errors.New("store not configured")

	// フィルタ無しの更新・削除は受け付けない
	ErrUnfilteredMutation = errors.New("mutation without filter")

	ErrInvalidQuery = errors.New("invalid query")
)

type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpNeq FilterOp = "neq"
	OpIn  FilterOp = "in"
)

// 1条件。ColumnはProductのカラム名
type Filter struct {
	Column string
	Op     FilterOp
	Value  any
}

func Eq(column string, v any) Filter  { return Filter{Column: column, Op: OpEq, Value: v} }
func Neq(column string, v any) Filter { return Filter{Column: column, Op: OpNeq, Value: v} }
func In(column string, v any) Filter  { return Filter{Column: column, Op: OpIn, Value: v} }

// select条件
type SelectQuery struct {
	Columns []string // 空なら全カラム
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int  // 0は無制限
	Single  bool // 0件ならErrNotFound、1件だけ返す
}

// 管理者が更新できる項目（nilは変更しない）
type ProductChanges struct {
	Title       *string
	Price       *decimal.Decimal
	Description *string
	Category    *string
}

func (c ProductChanges) IsEmpty() bool {
	return c.Title == nil && c.Price == nil && c.Description == nil && c.Category == nil
}

// productsテーブルへの汎用アクセスだけを約束。
type ProductRepository interface {
	Select(ctx context.Context, q SelectQuery) ([]model.Product, error)
	// 入力順で、採番済みの行を返す
	Insert(ctx context.Context, products []model.Product) ([]model.Product, error)
	Update(ctx context.Context, filters []Filter, changes ProductChanges) (int64, error)
	Delete(ctx context.Context, filters []Filter) (int64, error)
}

// ValidateはカラムとOpの妥当性を確認する
func (q SelectQuery) Validate() error {
	for _, c := range q.Columns {
		if !model.IsProductColumn(c) {
			return invalidColumn(c)
		}
	}
	if q.OrderBy != "" && !model.IsProductColumn(q.OrderBy) {
		return invalidColumn(q.OrderBy)
	}
	if q.Limit < 0 {
		return ErrInvalidQuery
	}
	return ValidateFilters(q.Filters)
}

func ValidateFilters(filters []Filter) error {
	for _, f := range filters {
		if !model.IsProductColumn(f.Column) {
			return invalidColumn(f.Column)
		}
		switch f.Op {
		case OpEq, OpNeq, OpIn:
		default:
			return errors.Join(ErrInvalidQuery, errors.New("unknown op "+string(f.Op)))
		}
	}
	return nil
}

func invalidColumn(c string) error {
	return errors.Join(ErrInvalidQuery, errors.New("unknown column "+c))
}

// ゲートウェイ障害ページに含まれる文字列
var outageMarkers = []string{
	"<!DOCTYPE html>",
	"Web server is down",
	"521",
}

// SQLSTATEを持つエラー（pgconn.PgErrorなど）
type sqlStateError interface {
	SQLState() string
}

// IsUnavailableはストア停止系のエラーか判定する。
// 基本はErrUnavailableで判定し、文字列での判定は型を持たないエラー向けの暫定処置。
// SQLSTATEを持つエラーはDBが応答しているので文字列では見ない。
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnavailable) {
		return true
	}
	var coded sqlStateError
	if errors.As(err, &coded) {
		return false
	}
	return HasOutageMarker(err.Error())
}

func HasOutageMarker(msg string) bool {
	for _, m := range outageMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}
