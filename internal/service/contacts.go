package service

import (
	"context"

	"go.uber.org/zap"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	apperrors "messaging-service/pkg/errors"
)

// ContactView is a contact decorated with directory display fields.
type ContactView struct {
	ID         int    `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	PictureURL string `json:"picture_url,omitempty"`
}

// CreateContacts adds contacts directly, bypassing the request flow. Invalid
// entries produce warnings instead of failing the batch. The direct path is
// kept for older callers; the request flow is the supported one.
func (s *Service) CreateContacts(ctx context.Context, actorID, userID int, contactIDs []int) ([]Warning, error) {
	ctx, span := s.startSpan(ctx, "CreateContacts")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return nil, err
	}

	s.log.Warn(ctx, "direct contact creation used instead of a contact request",
		zap.Int("user_id", userID))

	var warnings []Warning
	for i, contactID := range contactIDs {
		if contactID == userID {
			warnings = append(warnings, warningFor(i, apperrors.ErrSelfReference))
			continue
		}
		if err := s.requireActiveUser(ctx, contactID); err != nil {
			warnings = append(warnings, warningFor(i, err))
			continue
		}
		if err := s.contacts.AddContact(ctx, userID, contactID); err != nil {
			return nil, mapRepoErr(err)
		}
	}
	return warnings, nil
}

// DeleteContacts removes contacts in both directions. Absent rows are
// silently skipped.
func (s *Service) DeleteContacts(ctx context.Context, actorID, userID int, contactIDs []int) error {
	ctx, span := s.startSpan(ctx, "DeleteContacts")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return err
	}

	for _, contactID := range contactIDs {
		if err := s.contacts.DeleteContact(ctx, userID, contactID); err != nil {
			return mapRepoErr(err)
		}
		if err := s.contacts.DeleteContact(ctx, contactID, userID); err != nil {
			return mapRepoErr(err)
		}
	}
	return nil
}

// GetContacts returns the user's contacts with display fields.
func (s *Service) GetContacts(ctx context.Context, actorID, userID int) ([]ContactView, error) {
	ctx, span := s.startSpan(ctx, "GetContacts")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapReadAll); err != nil {
		return nil, err
	}

	rows, err := s.contacts.ListContacts(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ContactID)
	}
	byID := s.displayMap(ctx, ids)

	views := make([]ContactView, 0, len(rows))
	for _, row := range rows {
		display := byID[row.ContactID]
		views = append(views, ContactView{
			ID:         row.ContactID,
			FullName:   display.FullName,
			Email:      display.Email,
			PictureURL: display.PictureURL,
		})
	}
	return views, nil
}

// GetBlockedUsers returns the users blocked by userID.
func (s *Service) GetBlockedUsers(ctx context.Context, actorID, userID int) ([]ContactView, error) {
	ctx, span := s.startSpan(ctx, "GetBlockedUsers")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapReadAll); err != nil {
		return nil, err
	}

	rows, err := s.contacts.ListBlocked(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	ids := make([]int, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.BlockedUserID)
	}
	byID := s.displayMap(ctx, ids)

	views := make([]ContactView, 0, len(rows))
	for _, row := range rows {
		display := byID[row.BlockedUserID]
		views = append(views, ContactView{
			ID:         row.BlockedUserID,
			FullName:   display.FullName,
			Email:      display.Email,
			PictureURL: display.PictureURL,
		})
	}
	return views, nil
}

// BlockUser records a directional block. Blocking twice is a no-op; blocking
// yourself is refused.
func (s *Service) BlockUser(ctx context.Context, actorID, userID, blockedUserID int) error {
	ctx, span := s.startSpan(ctx, "BlockUser")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return err
	}
	if userID == blockedUserID {
		return apperrors.ErrSelfReference
	}
	if err := s.requireActiveUser(ctx, blockedUserID); err != nil {
		return err
	}
	return mapRepoErr(s.contacts.Block(ctx, userID, blockedUserID))
}

// UnblockUser removes a block. Unblocking a user who is not blocked is a no-op.
func (s *Service) UnblockUser(ctx context.Context, actorID, userID, blockedUserID int) error {
	ctx, span := s.startSpan(ctx, "UnblockUser")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return err
	}
	return mapRepoErr(s.contacts.Unblock(ctx, userID, blockedUserID))
}

// CreateContactRequest records a pending request from userID to
// requestedUserID. The request is refused with InvalidOperation when the
// requestee has blocked the requester or the can-message policy forbids it.
func (s *Service) CreateContactRequest(ctx context.Context, actorID, userID, requestedUserID int) (models.ContactRequest, error) {
	ctx, span := s.startSpan(ctx, "CreateContactRequest")
	defer span.End()

	settings, err := s.snapshot(ctx)
	if err != nil {
		return models.ContactRequest{}, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return models.ContactRequest{}, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return models.ContactRequest{}, err
	}
	if userID == requestedUserID {
		return models.ContactRequest{}, apperrors.ErrSelfReference
	}
	if err := s.requireActiveUser(ctx, requestedUserID); err != nil {
		return models.ContactRequest{}, err
	}

	ok, _, err := s.canMessage(ctx, settings, userID, requestedUserID)
	if err != nil {
		return models.ContactRequest{}, err
	}
	if !ok {
		return models.ContactRequest{}, apperrors.InvalidOperation("you are unable to create a contact request for this user")
	}

	req, err := s.contacts.CreateRequest(ctx, userID, requestedUserID)
	if err != nil {
		return models.ContactRequest{}, mapRepoErr(err)
	}
	return req, nil
}

// ConfirmContactRequest promotes a pending request to mutual contacts. Only
// the requested user (or an elevated actor) may confirm.
func (s *Service) ConfirmContactRequest(ctx context.Context, actorID, userID, requestedUserID int) error {
	ctx, span := s.startSpan(ctx, "ConfirmContactRequest")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return err
	}
	if err := s.requireActiveUser(ctx, requestedUserID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, requestedUserID, external.CapManageAll); err != nil {
		return err
	}
	return mapRepoErr(s.contacts.ConfirmRequest(ctx, userID, requestedUserID))
}

// DeclineContactRequest removes a pending request without creating contacts.
// Only the requested user (or an elevated actor) may decline.
func (s *Service) DeclineContactRequest(ctx context.Context, actorID, userID, requestedUserID int) error {
	ctx, span := s.startSpan(ctx, "DeclineContactRequest")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return err
	}
	if err := s.requireActiveUser(ctx, requestedUserID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, requestedUserID, external.CapManageAll); err != nil {
		return err
	}
	return mapRepoErr(s.contacts.DeleteRequest(ctx, userID, requestedUserID))
}

// ContactRequestView is a pending request decorated with the requester's
// display fields.
type ContactRequestView struct {
	ID         int    `json:"id"`
	UserID     int    `json:"user_id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	PictureURL string `json:"picture_url,omitempty"`
}

// GetContactRequests returns pending incoming requests, newest first,
// excluding requesters the user has blocked.
func (s *Service) GetContactRequests(ctx context.Context, actorID, userID int) ([]ContactRequestView, error) {
	ctx, span := s.startSpan(ctx, "GetContactRequests")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapReadAll); err != nil {
		return nil, err
	}

	requests, err := s.contacts.ListIncomingRequests(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}

	ids := make([]int, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.UserID)
	}
	byID := s.displayMap(ctx, ids)

	views := make([]ContactRequestView, 0, len(requests))
	for _, req := range requests {
		display := byID[req.UserID]
		views = append(views, ContactRequestView{
			ID:         req.ID,
			UserID:     req.UserID,
			FullName:   display.FullName,
			Email:      display.Email,
			PictureURL: display.PictureURL,
		})
	}
	return views, nil
}
