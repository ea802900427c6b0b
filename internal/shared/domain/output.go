package domain

// FaultType clasifica los fallos de negocio esperados.
type FaultType string

const (
	ResourceNotFound FaultType = "ResourceNotFound"
	InvalidOperation FaultType = "InvalidOperation"
	ValidationError  FaultType = "ValidationError"
	GenericError     FaultType = "GenericError"
)

// Fault es un fallo esperado: se devuelve dentro de Output, nunca como error.
type Fault struct {
	Type    FaultType `json:"type"`
	Message string    `json:"message"`
}

// Output es el resultado estructurado de un caso de uso.
type Output struct {
	Messages []string `json:"messages"`
	Faults   []Fault  `json:"faults,omitempty"`
}

func NewOutput() *Output {
	return &Output{Messages: []string{}}
}

func (o *Output) AddMessage(msg string) {
	o.Messages = append(o.Messages, msg)
}

func (o *Output) AddFault(faultType FaultType, msg string) {
	o.Faults = append(o.Faults, Fault{Type: faultType, Message: msg})
}

// IsValid es true mientras no se haya registrado ningún fault.
func (o *Output) IsValid() bool {
	return len(o.Faults) == 0
}

func (o *Output) FaultMessages() []string {
	msgs := make([]string, 0, len(o.Faults))
	for _, f := range o.Faults {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

// FirstFaultType devuelve el tipo del primer fault, o "" si no hay.
func (o *Output) FirstFaultType() FaultType {
	if len(o.Faults) == 0 {
		return ""
	}
	return o.Faults[0].Type
}

// HasFault indica si hay algún fault del tipo dado.
func (o *Output) HasFault(faultType FaultType) bool {
	for _, f := range o.Faults {
		if f.Type == faultType {
			return true
		}
	}
	return false
}

// QueryOutput añade un resultado tipado a Output.
type QueryOutput[T any] struct {
	Output
	Result T `json:"result"`
}

func NewQueryOutput[T any]() *QueryOutput[T] {
	return &QueryOutput[T]{Output: *NewOutput()}
}
