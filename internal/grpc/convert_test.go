package grpc

import (
	"testing"
	"time"

	"usermgr/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestUserStructRoundTrip(t *testing.T) {
	in := &models.User{
		ID:          12,
		FullName:    "Ana",
		Email:       "ana@x.com",
		PhoneNumber: "555",
		CreatedAt:   time.Date(2024, 5, 1, 12, 0, 0, 123000000, time.UTC),
	}

	s, err := userToStruct(in)
	require.NoError(t, err)
	assert.Equal(t, "Ana", s.GetFields()[fieldFullName].GetStringValue())

	out, err := structToUser(s)
	require.NoError(t, err)
	assert.Equal(t, *in, *out)
}

func TestUserToStructOmitsZeroCreatedAt(t *testing.T) {
	s, err := userToStruct(&models.User{FullName: "Ana"})
	require.NoError(t, err)
	_, ok := s.GetFields()[fieldCreatedAt]
	assert.False(t, ok)
}

func TestUserToStructRejectsHugeID(t *testing.T) {
	_, err := userToStruct(&models.User{ID: maxExactID + 1})
	assert.Error(t, err)
}

func TestStructToUser(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]any
		want    models.User
		wantErr bool
	}{
		{name: "missing fields stay blank", fields: map[string]any{}, want: models.User{}},
		{name: "partial", fields: map[string]any{fieldEmail: "a@b.c"}, want: models.User{Email: "a@b.c"}},
		{name: "integral id", fields: map[string]any{fieldID: 7.0}, want: models.User{ID: 7}},
		{name: "fractional id", fields: map[string]any{fieldID: 7.5}, wantErr: true},
		{name: "string id", fields: map[string]any{fieldID: "7"}, wantErr: true},
		{name: "bad timestamp", fields: map[string]any{fieldCreatedAt: "yesterday"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := structpb.NewStruct(tt.fields)
			require.NoError(t, err)

			got, err := structToUser(s)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestListConversion(t *testing.T) {
	users := []models.User{{ID: 1, FullName: "Ana"}, {ID: 2, FullName: "Bruno"}}

	list, err := usersToList(users)
	require.NoError(t, err)
	assert.Len(t, list.GetValues(), 2)

	back, err := listToUsers(list)
	require.NoError(t, err)
	assert.Equal(t, users, back)

	_, err = listToUsers(&structpb.ListValue{Values: []*structpb.Value{structpb.NewStringValue("x")}})
	assert.Error(t, err)
}
