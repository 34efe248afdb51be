package handler

import (
	"math"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func invalidArgument(format string, args ...any) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// field returns the named value, treating an explicit null as absent.
func field(req *structpb.Struct, name string) (*structpb.Value, bool) {
	v, ok := req.GetFields()[name]
	if !ok {
		return nil, false
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, false
	}
	return v, true
}

func stringField(req *structpb.Struct, name string) (string, bool, error) {
	v, ok := field(req, name)
	if !ok {
		return "", false, nil
	}
	s, isString := v.GetKind().(*structpb.Value_StringValue)
	if !isString {
		return "", false, invalidArgument("%s must be a string", name)
	}
	return s.StringValue, true, nil
}

func requiredString(req *structpb.Struct, name string) (string, error) {
	s, ok, err := stringField(req, name)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", invalidArgument("%s is required", name)
	}
	return s, nil
}

func uuidField(req *structpb.Struct, name string) (uuid.UUID, bool, error) {
	s, ok, err := stringField(req, name)
	if err != nil || !ok {
		return uuid.Nil, false, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, false, invalidArgument("%s must be a uuid", name)
	}
	return id, true, nil
}

func boolField(req *structpb.Struct, name string) (bool, bool, error) {
	v, ok := field(req, name)
	if !ok {
		return false, false, nil
	}
	b, isBool := v.GetKind().(*structpb.Value_BoolValue)
	if !isBool {
		return false, false, invalidArgument("%s must be a boolean", name)
	}
	return b.BoolValue, true, nil
}

func intField(req *structpb.Struct, name string) (int, bool, error) {
	v, ok := field(req, name)
	if !ok {
		return 0, false, nil
	}
	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, false, invalidArgument("%s must be an integer", name)
	}
	return int(n.NumberValue), true, nil
}

func stringListField(req *structpb.Struct, name string) ([]string, bool, error) {
	v, ok := field(req, name)
	if !ok {
		return nil, false, nil
	}
	list, isList := v.GetKind().(*structpb.Value_ListValue)
	if !isList {
		return nil, false, invalidArgument("%s must be a list", name)
	}
	out := make([]string, 0, len(list.ListValue.GetValues()))
	for _, item := range list.ListValue.GetValues() {
		s, isString := item.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return nil, false, invalidArgument("%s must contain strings", name)
		}
		out = append(out, s.StringValue)
	}
	return out, true, nil
}

func newStruct(fields map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal server error")
	}
	return s, nil
}

func anyList[T any](items []T, conv func(T) any) []any {
	out := make([]any, 0, len(items))
	for _, item := range items {
		out = append(out, conv(item))
	}
	return out
}
