package model

import "github.com/shopspring/decimal"

// カートの明細（商品ID＋数量）
// サーバーのproductsには書き戻さない。
type CartLine struct {
	ProductID int64 `json:"id"`
	Qty       int64 `json:"qty"`
}

// 1商品につき1明細
type CartLines []CartLine

// Addは既存明細なら数量+1、無ければqty=1で末尾に追加する。
// 元のスライスは変更しない。
func (ls CartLines) Add(productID int64) CartLines {
	out := make(CartLines, len(ls), len(ls)+1)
	copy(out, ls)
	for i := range out {
		if out[i].ProductID == productID {
			out[i].Qty++
			return out
		}
	}
	return append(out, CartLine{ProductID: productID, Qty: 1})
}

// 数量の合計
func (ls CartLines) Count() int64 {
	var n int64
	for _, l := range ls {
		n += l.Qty
	}
	return n
}

// Totalは Σ qty×price。pricesに無い商品は0円扱い。
func (ls CartLines) Total(prices map[int64]decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range ls {
		p, ok := prices[l.ProductID]
		if !ok {
			continue
		}
		total = total.Add(p.Mul(decimal.NewFromInt(l.Qty)))
	}
	return total
}

// 不正な明細（id<=0, qty<=0）を除き、同一商品はまとめる
func (ls CartLines) Normalize() CartLines {
	out := make(CartLines, 0, len(ls))
	idx := make(map[int64]int, len(ls))
	for _, l := range ls {
		if l.ProductID <= 0 || l.Qty <= 0 {
			continue
		}
		if i, ok := idx[l.ProductID]; ok {
			out[i].Qty += l.Qty
			continue
		}
		idx[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out
}

func (ls CartLines) ProductIDs() []int64 {
	ids := make([]int64, 0, len(ls))
	for _, l := range ls {
		ids = append(ids, l.ProductID)
	}
	return ids
}
