// Package locale holds the user-facing strings of the claim API in English and Vietnamese.
package locale

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	InvalidAddress   = "invalid_address"
	NothingToClaim   = "nothing_to_claim"
	ClaimInProgress  = "claim_in_progress"
	InsufficientPool = "insufficient_pool_balance"
	TransferFailed   = "transfer_failed"
	Configuration    = "configuration_error"
	Persistence      = "persistence_error"
	Unauthenticated  = "unauthenticated"
	Forbidden        = "forbidden"
	BadRequest       = "bad_request"
	ClaimNotFound    = "claim_not_found"
	ClaimPending     = "claim_pending"
	ClaimSuccess     = "claim_success"
	Internal         = "internal_error"
)

var supported = []language.Tag{language.English, language.Vietnamese}

var matcher = language.NewMatcher(supported)

var catalog = map[string][2]string{
	InvalidAddress: {
		"Invalid wallet address.",
		"Địa chỉ ví không hợp lệ.",
	},
	NothingToClaim: {
		"You have no rewards to claim.",
		"Bạn không có phần thưởng nào để nhận.",
	},
	ClaimInProgress: {
		"A claim is already being processed. Please wait for it to finish.",
		"Đang có một yêu cầu nhận thưởng được xử lý. Vui lòng đợi.",
	},
	InsufficientPool: {
		"The reward pool is temporarily low. Please try again later.",
		"Quỹ phần thưởng tạm thời không đủ. Vui lòng thử lại sau.",
	},
	TransferFailed: {
		"The token transfer failed. Please try again.",
		"Chuyển token thất bại. Vui lòng thử lại.",
	},
	Configuration: {
		"Claiming is not available right now. Please contact support.",
		"Tính năng nhận thưởng hiện không khả dụng. Vui lòng liên hệ hỗ trợ.",
	},
	Persistence: {
		"Your claim could not be saved. Please try again.",
		"Không thể lưu yêu cầu nhận thưởng. Vui lòng thử lại.",
	},
	Unauthenticated: {
		"Please sign in to continue.",
		"Vui lòng đăng nhập để tiếp tục.",
	},
	Forbidden: {
		"You are not allowed to do this.",
		"Bạn không có quyền thực hiện thao tác này.",
	},
	BadRequest: {
		"Invalid request.",
		"Yêu cầu không hợp lệ.",
	},
	ClaimNotFound: {
		"Claim not found.",
		"Không tìm thấy yêu cầu nhận thưởng.",
	},
	ClaimPending: {
		"Your transfer was submitted and is waiting for confirmation.",
		"Giao dịch đã được gửi và đang chờ xác nhận.",
	},
	ClaimSuccess: {
		"Successfully claimed %v %s!",
		"Đã nhận thành công %v %s!",
	},
	Internal: {
		"Something went wrong. Please try again.",
		"Đã xảy ra lỗi. Vui lòng thử lại.",
	},
}

func init() {
	for key, texts := range catalog {
		for i, tag := range supported {
			if err := message.SetString(tag, key, texts[i]); err != nil {
				panic(err)
			}
		}
	}
}

// Printer picks the best supported language for an Accept-Language header value.
// Anything unparseable or unsupported falls back to English.
func Printer(acceptLanguage string) *message.Printer {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return message.NewPrinter(language.English)
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return message.NewPrinter(language.English)
	}
	return message.NewPrinter(supported[index])
}

func Message(p *message.Printer, key string) string {
	return p.Sprintf(key)
}

// ClaimedMessage formats a paid amount with the reader's digit grouping.
func ClaimedMessage(p *message.Printer, amount decimal.Decimal, symbol string) string {
	return p.Sprintf(ClaimSuccess, number.Decimal(amount.InexactFloat64(), number.MaxFractionDigits(6)), symbol)
}
