package service

import (
	"context"
	"strings"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	apperrors "messaging-service/pkg/errors"
)

// SearchUsersResult partitions a directory search relative to the searching
// user's contact list.
type SearchUsersResult struct {
	Contacts    []models.MemberView `json:"contacts"`
	NonContacts []models.MemberView `json:"non_contacts"`
}

// SearchUsers matches the query against the user directory and splits the
// hits into contacts and non-contacts of the user. The user themselves never
// appears in the results.
func (s *Service) SearchUsers(ctx context.Context, actorID, userID int, query string, limitNum int) (SearchUsersResult, error) {
	ctx, span := s.startSpan(ctx, "SearchUsers")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return SearchUsersResult{}, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return SearchUsersResult{}, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapReadAll); err != nil {
		return SearchUsersResult{}, err
	}
	if strings.TrimSpace(query) == "" {
		return SearchUsersResult{}, apperrors.ErrEmptySearchQuery
	}

	hits, err := s.users.Search(ctx, query, limitNum)
	if err != nil {
		return SearchUsersResult{}, apperrors.Internal("search user directory", err)
	}

	result := SearchUsersResult{
		Contacts:    []models.MemberView{},
		NonContacts: []models.MemberView{},
	}
	for _, hit := range hits {
		if hit.ID == userID {
			continue
		}
		view, isContact, err := s.decorateHit(ctx, userID, hit)
		if err != nil {
			return SearchUsersResult{}, err
		}
		if isContact {
			result.Contacts = append(result.Contacts, view)
		} else {
			result.NonContacts = append(result.NonContacts, view)
		}
	}
	return result, nil
}

// SearchUsersInCourse matches the query against users enrolled in one course.
func (s *Service) SearchUsersInCourse(ctx context.Context, actorID, userID, courseID int, query string) ([]models.MemberView, error) {
	ctx, span := s.startSpan(ctx, "SearchUsersInCourse")
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
	if courseID <= 0 {
		return nil, apperrors.InvalidArg("a course id is required")
	}
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.ErrEmptySearchQuery
	}

	hits, err := s.links.SearchEnrolled(ctx, courseID, query)
	if err != nil {
		return nil, apperrors.Internal("search course enrollments", err)
	}

	views := make([]models.MemberView, 0, len(hits))
	for _, hit := range hits {
		if hit.ID == userID {
			continue
		}
		view, _, err := s.decorateHit(ctx, userID, hit)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// SearchContacts matches the query against the user directory without the
// contact partition; every hit is decorated with its contact and block state
// instead. With limitedToCourses set, hits not sharing a course with the user
// are dropped.
func (s *Service) SearchContacts(ctx context.Context, actorID, userID int, query string, limitedToCourses bool, limitNum int) ([]models.MemberView, error) {
	ctx, span := s.startSpan(ctx, "SearchContacts")
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
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.ErrEmptySearchQuery
	}

	hits, err := s.users.Search(ctx, query, limitNum)
	if err != nil {
		return nil, apperrors.Internal("search user directory", err)
	}

	views := make([]models.MemberView, 0, len(hits))
	for _, hit := range hits {
		if hit.ID == userID {
			continue
		}
		if limitedToCourses {
			shared, err := s.links.ShareCourse(ctx, userID, hit.ID)
			if err != nil {
				return nil, apperrors.Internal("query course enrollments", err)
			}
			if !shared {
				continue
			}
		}
		view, _, err := s.decorateHit(ctx, userID, hit)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *Service) decorateHit(ctx context.Context, userID int, hit external.UserDisplay) (models.MemberView, bool, error) {
	isContact, err := s.contacts.AreContacts(ctx, userID, hit.ID)
	if err != nil {
		return models.MemberView{}, false, mapRepoErr(err)
	}
	isBlocked, err := s.contacts.IsBlocked(ctx, userID, hit.ID)
	if err != nil {
		return models.MemberView{}, false, mapRepoErr(err)
	}
	return models.MemberView{
		ID:              hit.ID,
		FullName:        hit.FullName,
		ProfileImageURL: hit.PictureURL,
		IsContact:       isContact,
		IsBlocked:       isBlocked,
	}, isContact, nil
}

// SearchMessages finds the user's visible messages whose body contains the
// query, newest first.
func (s *Service) SearchMessages(ctx context.Context, actorID, userID int, query string, limitFrom, limitNum int) ([]models.Message, error) {
	ctx, span := s.startSpan(ctx, "SearchMessages")
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
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.ErrEmptySearchQuery
	}

	hits, err := s.messages.Search(ctx, userID, query, limitFrom, limitNum)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return hits, nil
}
