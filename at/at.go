package at

const (
	// Terminal Control
	CRLF   = "\r\n"
	LF     = "\n"
	Prompt = "> "
	CtrlZ  = "\x1a"

	// Response Codes
	OK         = "OK"
	ERROR      = "ERROR"
	NoCarrier  = "NO CARRIER"
	NoDialtone = "NO DIALTONE"
	Busy       = "BUSY"
	NoAnswer   = "NO ANSWER"
	CmeError   = "+CME ERROR:"
	CmsError   = "+CMS ERROR:"

	// URCs (Unsolicited Result Codes)
	UrcNewMsg   = "+CMTI:"
	UrcMessage  = "+CMT:"
	UrcCallerID = "+CLIP:"
	UrcUSSD     = "+CUSD:"
	UrcCall     = "RING"

	// Information responses
	RespOwnNumber = "+CNUM:"
	RespSimStatus = "+CPIN:"

	// SIM states reported by AT+CPIN?
	SimReady = "+CPIN: READY"
	SimPin   = "+CPIN: SIM PIN"
)

// Commands issued by the driver. Commands taking arguments are format
// strings for fmt.Sprintf.
const (
	CmdAt            = "AT"
	CmdSimStatus     = "AT+CPIN?"
	CmdSimPIN        = `AT+CPIN="%s"`
	CmdCallerID      = "AT+CLIP=1"
	CmdSetTextMode   = "AT+CMGF=1"
	CmdNewMsgDirect  = "AT+CNMI=2,2,0,0,0"
	CmdOwnNumber     = "AT+CNUM"
	CmdHangup        = "ATH"
	CmdUSSDMode      = "AT+CUSD=1"
	CmdUSSDRequest   = `AT+CUSD=1,"%s",15`
	CmdSendSMS       = `AT+CMGS="%s"`
	USSDRequestEcho  = `AT+CUSD=1,"`
	MaxSMSTextLength = 160
)

type ResponseType int

const (
	TypeFinal  ResponseType = iota // OK, ERROR
	TypeURC                        // Asynchronous notifications
	TypeData                       // Intermediate command output (+CSQ: ...)
	TypePrompt                     // SMS input prompt
)
