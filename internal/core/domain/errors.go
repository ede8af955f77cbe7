package domain

import "errors"

var (
	ErrInvalidProduct  = errors.New("invalid product")
	ErrSoldOut         = errors.New("sold out")
	ErrNotEnoughMoney  = errors.New("not enough money")
	ErrNotEnoughChange = errors.New("not enough change")
)
