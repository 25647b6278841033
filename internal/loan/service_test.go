package loan

import (
	"context"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestService_Issue(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, DefaultFeePolicy(), 3)

	t.Run("defaults issue date to now", func(t *testing.T) {
		mockRepo.EXPECT().
			Issue(gomock.Any(), gomock.Any(), 3).
			DoAndReturn(func(_ context.Context, in IssueInput, _ int) (Transaction, error) {
				assert.False(t, in.IssueDate.IsZero())
				assert.WithinDuration(t, time.Now(), in.IssueDate, time.Minute)
				return Transaction{ID: 1, Type: TypeIssue, BookID: in.BookID, MemberID: in.MemberID}, nil
			})

		got, err := service.Issue(context.Background(), IssueInput{BookID: 10, MemberID: 20})
		assert.NoError(t, err)
		assert.Equal(t, int64(1), got.ID)
	})

	t.Run("keeps explicit issue date", func(t *testing.T) {
		issued := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		mockRepo.EXPECT().
			Issue(gomock.Any(), IssueInput{BookID: 10, MemberID: 20, IssueDate: issued}, 3).
			Return(Transaction{ID: 2}, nil)

		_, err := service.Issue(context.Background(), IssueInput{BookID: 10, MemberID: 20, IssueDate: issued})
		assert.NoError(t, err)
	})

	t.Run("passes repository errors through", func(t *testing.T) {
		mockRepo.EXPECT().Issue(gomock.Any(), gomock.Any(), 3).Return(Transaction{}, ErrOutOfStock)

		_, err := service.Issue(context.Background(), IssueInput{BookID: 10, MemberID: 20})
		assert.ErrorIs(t, err, ErrOutOfStock)
	})
}

func TestService_Return(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, DefaultFeePolicy(), 3)

	issued := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("computes fee from policy when none supplied", func(t *testing.T) {
		returned := issued.AddDate(0, 0, 14)
		want := decimal.RequireFromString("28.00")

		mockRepo.EXPECT().GetByID(gomock.Any(), int64(7)).
			Return(Transaction{ID: 7, Type: TypeIssue, IssueDate: issued}, nil)
		mockRepo.EXPECT().
			Return(gomock.Any(), int64(7), returned, gomock.Any(), true).
			DoAndReturn(func(_ context.Context, id int64, _ time.Time, fee decimal.Decimal, _ bool) (Transaction, error) {
				assert.True(t, fee.Equal(want), "got %s", fee)
				return Transaction{ID: id}, nil
			})

		_, err := service.Return(context.Background(), 7, returned, nil, true)
		assert.NoError(t, err)
	})

	t.Run("caller fee wins over policy", func(t *testing.T) {
		returned := issued.AddDate(0, 0, 5)
		supplied := decimal.RequireFromString("12.345")

		mockRepo.EXPECT().
			Return(gomock.Any(), int64(7), returned, gomock.Any(), false).
			DoAndReturn(func(_ context.Context, id int64, _ time.Time, fee decimal.Decimal, _ bool) (Transaction, error) {
				assert.True(t, fee.Equal(decimal.RequireFromString("12.35")), "got %s", fee)
				return Transaction{ID: id}, nil
			})

		_, err := service.Return(context.Background(), 7, returned, &supplied, false)
		assert.NoError(t, err)
	})

	t.Run("missing loan", func(t *testing.T) {
		mockRepo.EXPECT().GetByID(gomock.Any(), int64(9)).Return(Transaction{}, ErrNotFound)

		_, err := service.Return(context.Background(), 9, issued.AddDate(0, 0, 1), nil, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Recent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, DefaultFeePolicy(), 3)

	t.Run("clamps invalid limits", func(t *testing.T) {
		mockRepo.EXPECT().Recent(gomock.Any(), 5).Return([]Transaction{}, nil).Times(2)

		_, err := service.Recent(context.Background(), 0)
		assert.NoError(t, err)
		_, err = service.Recent(context.Background(), 500)
		assert.NoError(t, err)
	})

	t.Run("passes sane limit through", func(t *testing.T) {
		mockRepo.EXPECT().Recent(gomock.Any(), 10).Return([]Transaction{{ID: 1}}, nil)

		got, err := service.Recent(context.Background(), 10)
		assert.NoError(t, err)
		assert.Len(t, got, 1)
	})
}
