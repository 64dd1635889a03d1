package domain

import (
	"github.com/pkg/errors"
)

type PaymentMethodType string

const (
	PaymentMethodTypeCreditCard PaymentMethodType = "credit_card"
	PaymentMethodTypeDebit      PaymentMethodType = "debit"
	PaymentMethodTypeWallet     PaymentMethodType = "wallet"
)

var ErrUnknownPaymentMethod = errors.New("unknown payment method type")

var allPaymentMethodTypes = map[string]PaymentMethodType{
	PaymentMethodTypeCreditCard.String(): PaymentMethodTypeCreditCard,
	PaymentMethodTypeDebit.String():      PaymentMethodTypeDebit,
	PaymentMethodTypeWallet.String():     PaymentMethodTypeWallet,
}

func NewPaymentMethodType(value string) (PaymentMethodType, error) {
	if method, ok := allPaymentMethodTypes[value]; ok {
		return method, nil
	}
	return "", errors.Wrap(ErrUnknownPaymentMethod, value)
}

func (pt PaymentMethodType) String() string {
	return string(pt)
}
