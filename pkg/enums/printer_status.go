package enums

type PrinterStatus string

const (
	PrinterOnline  PrinterStatus = "online"
	PrinterOffline PrinterStatus = "offline"
)

func (s PrinterStatus) String() string {
	return string(s)
}
