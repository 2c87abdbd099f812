package ledger

import (
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"crowdfund/internal/apperr"
)

const (
	// CodeUnparsable is reported when the remote status has no description.
	CodeUnparsable = "90"
	// CodeMalformed is reported when the description is not "<code> > <message>".
	CodeMalformed = "91"

	descriptionSeparator = " > "
)

// DecodeStatus turns a failed call into the remote code and message.
func DecodeStatus(err error) apperr.RemoteDetail {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return apperr.RemoteDetail{Code: CodeUnparsable, Message: "Could not parse error: " + errText(err)}
	}
	// transport failures never reached the service, so they carry no coded description
	switch st.Code() {
	case codes.DeadlineExceeded, codes.Canceled, codes.Unavailable:
		if !strings.Contains(st.Message(), descriptionSeparator) {
			return apperr.RemoteDetail{Code: CodeUnparsable, Message: "Could not parse error: " + st.Message()}
		}
	}
	return decodeDescription(st.Message())
}

func decodeDescription(desc string) apperr.RemoteDetail {
	if desc == "" {
		return apperr.RemoteDetail{Code: CodeUnparsable, Message: "Could not parse error: empty description"}
	}
	parts := strings.Split(desc, descriptionSeparator)
	if len(parts) != 2 {
		return apperr.RemoteDetail{Code: CodeMalformed, Message: "Wrong size of error message: " + desc}
	}
	return apperr.RemoteDetail{Code: parts[0], Message: parts[1]}
}

func remoteError(op string, err error, format string, args ...any) *apperr.Error {
	e := apperr.Remote(op, DecodeStatus(err), err)
	e.Message = fmt.Sprintf(format, args...)
	return e
}

func errText(err error) string {
	if err == nil {
		return "<nil>"
	}
	return err.Error()
}
