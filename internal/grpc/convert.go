package grpc

import (
	"fmt"
	"math"
	"time"

	"usermgr/internal/models"

	"google.golang.org/protobuf/types/known/structpb"
)

// Struct keys mirror the JSON names of models.User.
const (
	fieldID          = "id"
	fieldFullName    = "nombreCompleto"
	fieldEmail       = "email"
	fieldPhoneNumber = "numeroTelefono"
	fieldCreatedAt   = "createdAt"
)

// maxExactID is the largest id a protobuf number value carries without loss.
const maxExactID = 1 << 53

func userToStruct(u *models.User) (*structpb.Struct, error) {
	if u.ID > maxExactID || u.ID < -maxExactID {
		return nil, fmt.Errorf("user id %d does not fit a protobuf number", u.ID)
	}
	fields := map[string]any{
		fieldID:          u.ID,
		fieldFullName:    u.FullName,
		fieldEmail:       u.Email,
		fieldPhoneNumber: u.PhoneNumber,
	}
	if !u.CreatedAt.IsZero() {
		fields[fieldCreatedAt] = u.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return structpb.NewStruct(fields)
}

// structToUser reads the mutable fields; missing ones are left blank.
func structToUser(s *structpb.Struct) (*models.User, error) {
	fields := s.GetFields()
	u := &models.User{
		FullName:    fields[fieldFullName].GetStringValue(),
		Email:       fields[fieldEmail].GetStringValue(),
		PhoneNumber: fields[fieldPhoneNumber].GetStringValue(),
	}
	if v, ok := fields[fieldID]; ok {
		id, err := numberToID(v)
		if err != nil {
			return nil, err
		}
		u.ID = id
	}
	if v := fields[fieldCreatedAt].GetStringValue(); v != "" {
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", fieldCreatedAt, err)
		}
		u.CreatedAt = t
	}
	return u, nil
}

func numberToID(v *structpb.Value) (int64, error) {
	if _, ok := v.GetKind().(*structpb.Value_NumberValue); !ok {
		return 0, fmt.Errorf("%s must be a number", fieldID)
	}
	n := v.GetNumberValue()
	if n != math.Trunc(n) || math.Abs(n) > maxExactID {
		return 0, fmt.Errorf("%s must be an integer, got %v", fieldID, n)
	}
	return int64(n), nil
}

func usersToList(users []models.User) (*structpb.ListValue, error) {
	values := make([]*structpb.Value, 0, len(users))
	for i := range users {
		s, err := userToStruct(&users[i])
		if err != nil {
			return nil, err
		}
		values = append(values, structpb.NewStructValue(s))
	}
	return &structpb.ListValue{Values: values}, nil
}

func listToUsers(list *structpb.ListValue) ([]models.User, error) {
	users := make([]models.User, 0, len(list.GetValues()))
	for _, v := range list.GetValues() {
		s := v.GetStructValue()
		if s == nil {
			return nil, fmt.Errorf("list element is not a user struct")
		}
		u, err := structToUser(s)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, nil
}
