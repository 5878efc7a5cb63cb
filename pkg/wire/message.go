package wire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CBOR map keys for message encoding.
const (
	KeyID          = 1
	KeyOpOrStatus  = 2 // Op (request) or Status (response)
	KeyArgsOrCode  = 3 // Args (request) or Code (response)
	KeyMessage     = 4
	KeyResult      = 5
)

// Request is a bridge request from a client.
//
// CBOR encoding:
//
//	{
//	  1: id,     // uint32, non-zero, unique per connection
//	  2: op,     // uint8
//	  3: args    // op-specific, absent when the op takes none
//	}
type Request struct {
	ID   uint32          `cbor:"1,keyasint"`
	Op   Op              `cbor:"2,keyasint"`
	Args cbor.RawMessage `cbor:"3,keyasint,omitempty"`
}

// NewRequest builds a request, encoding args unless nil.
func NewRequest(id uint32, op Op, args any) (*Request, error) {
	req := &Request{ID: id, Op: op}
	if args != nil {
		data, err := Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("encode %s args: %w", op, err)
		}
		req.Args = data
	}
	return req, nil
}

// Validate checks if the request is valid.
func (r *Request) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("id 0 is reserved")
	}
	if !r.Op.IsValid() {
		return fmt.Errorf("invalid op: %d", r.Op)
	}
	return nil
}

// DecodeArgs decodes the request arguments into v.
func (r *Request) DecodeArgs(v any) error {
	if len(r.Args) == 0 {
		return fmt.Errorf("%s: missing args", r.Op)
	}
	if err := Unmarshal(r.Args, v); err != nil {
		return fmt.Errorf("%s: bad args: %w", r.Op, err)
	}
	return nil
}

// Response is the bridge answer to one Request.
//
// CBOR encoding:
//
//	{
//	  1: id,       // uint32, matches request
//	  2: status,   // uint8: 0=success
//	  3: code,     // errno, absent when zero
//	  4: message,  // error text, absent on success
//	  5: result    // op-specific, absent when the op returns nothing
//	}
type Response struct {
	ID      uint32          `cbor:"1,keyasint"`
	Status  Status          `cbor:"2,keyasint"`
	Code    int32           `cbor:"3,keyasint,omitempty"`
	Message string          `cbor:"4,keyasint,omitempty"`
	Result  cbor.RawMessage `cbor:"5,keyasint,omitempty"`
}

// NewResponse builds a success response, encoding result unless nil.
func NewResponse(id uint32, result any) (*Response, error) {
	resp := &Response{ID: id, Status: StatusSuccess}
	if result != nil {
		data, err := Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		resp.Result = data
	}
	return resp, nil
}

// ErrorResponse builds a failure response from err.
func ErrorResponse(id uint32, err error) *Response {
	status, code := StatusFromError(err)
	return &Response{ID: id, Status: status, Code: int32(code), Message: err.Error()}
}

// Validate checks that the response can be matched to a request.
func (r *Response) Validate() error {
	if r.ID == 0 {
		return fmt.Errorf("missing id")
	}
	return nil
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Status.IsSuccess()
}

// DecodeResult decodes the response result into v.
func (r *Response) DecodeResult(v any) error {
	if len(r.Result) == 0 {
		return fmt.Errorf("response %d: missing result", r.ID)
	}
	if err := Unmarshal(r.Result, v); err != nil {
		return fmt.Errorf("response %d: bad result: %w", r.ID, err)
	}
	return nil
}
