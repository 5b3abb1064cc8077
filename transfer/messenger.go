package transfer

//go:generate go tool mockgen -source=messenger.go -destination=mock_messenger.go -package=transfer

import "i4.energy/across/callgate/modem"

// Messenger is the part of the modem the transfer dialog talks through.
// *modem.Modem implements it.
type Messenger interface {
	SendSMS(number, text string) (string, error)
	SendUSSD(code string, h modem.USSDHandler) (string, error)
	Route(number string, h modem.SMSHandler)
	Unroute(number string)
	OwnNumber() (string, bool)
}

var _ Messenger = (*modem.Modem)(nil)
