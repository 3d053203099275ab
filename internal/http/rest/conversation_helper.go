package rest

import (
	"context"
	"errors"

	"github.com/carecircle/carecircle_api/internal/model"
	"github.com/carecircle/carecircle_api/util"
	"github.com/carecircle/carecircle_api/util/values"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

func (api *API) CreateConversationHelper(ctx context.Context, userID uuid.UUID, req model.CreateConversationRequest) (model.Conversation, string, string, error) {
	circleID, err := uuid.Parse(req.CircleID)
	if err != nil {
		return model.Conversation{}, values.BadRequestBody, "Invalid circle id", err
	}

	members := make([]uuid.UUID, 0, len(req.Members)+1)
	seen := map[uuid.UUID]bool{}
	for _, m := range req.Members {
		id, err := uuid.Parse(m)
		if err != nil {
			return model.Conversation{}, values.BadRequestBody, "Invalid member id", err
		}
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}
	// The creator is always a participant.
	if !seen[userID] {
		members = append(members, userID)
	}

	if req.Type == model.ConversationPrivate {
		if len(members) != 2 {
			return model.Conversation{}, values.Unprocessable, "A private conversation has exactly two participants", nil
		}
		// A second private conversation between the same pair reuses the
		// existing one. Only a clean no-rows miss may fall through to create;
		// a failed lookup must not open the door to a duplicate pair.
		existing, err := api.FindPrivateConversationRepo(ctx, circleID, members[0], members[1])
		if err == nil {
			return existing, values.Success, "Conversation already exists", nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return model.Conversation{}, values.Error, "Failed to look up conversation", err
		}
	}

	conversation, err := api.CreateConversationRepo(ctx, model.Conversation{
		CircleID: circleID,
		Type:     req.Type,
		Name:     util.StrPtr(req.Name),
		Members:  members,
	})
	if err != nil {
		return model.Conversation{}, values.Error, "Failed to create conversation", err
	}

	return conversation, values.Created, "Conversation created successfully", nil
}
