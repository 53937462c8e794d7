package policy

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lshigami/Quokkas/internal/model"
)

// RejectionReason is the machine-readable cause of a refused submission.
// Each cause is distinct so the UI can surface an actionable message.
type RejectionReason string

const (
	PollNotOpen         RejectionReason = "poll_not_open"
	DeadlinePassed      RejectionReason = "deadline_passed"
	AccountRequired     RejectionReason = "account_required"
	AudienceMismatch    RejectionReason = "audience_mismatch"
	DuplicateSubmission RejectionReason = "duplicate_submission"
)

// Rejection is a terminal refusal of one submission attempt.
type Rejection struct {
	Reason  RejectionReason `json:"reason"`
	Message string          `json:"message"`
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("submission rejected (%s): %s", r.Reason, r.Message)
}

// Identity is what the session collaborator knows about the respondent.
type Identity struct {
	LoggedIn      bool
	UserID        string
	UserName      string
	UserRole      string
	UserCommittee string
	IP            string
	DeviceID      string
}

// Prior is the dedup-relevant slice of an already-persisted response.
type Prior struct {
	UserID   string
	IP       string
	DeviceID string
	Nonce    string
}

// Evaluate applies the submission checks in their fixed order and
// short-circuits on the first failure. A nil return means the submission
// may proceed to persistence. A prior carrying the submission's own nonce
// is the same submission seen again (a retry after a lost acknowledgement),
// never a duplicate.
func Evaluate(poll *model.Poll, id Identity, priors []Prior, nonce string, now time.Time) *Rejection {
	if poll.Status != model.StatusOpen {
		return &Rejection{Reason: PollNotOpen, Message: fmt.Sprintf("poll is %s", poll.Status)}
	}

	if poll.DeadlineExpired(now) {
		return &Rejection{Reason: DeadlinePassed, Message: "the submission deadline has passed"}
	}

	if (poll.Visibility == model.VisibilityPrivate || poll.AccountOnlySubmissions) && !id.LoggedIn {
		return &Rejection{Reason: AccountRequired, Message: "this poll requires a logged-in account"}
	}

	if poll.TargetRole != "" && id.UserRole != poll.TargetRole {
		return &Rejection{Reason: AudienceMismatch, Message: fmt.Sprintf("poll is restricted to role %q", poll.TargetRole)}
	}
	if poll.TargetCommittee != "" && id.UserCommittee != poll.TargetCommittee {
		return &Rejection{Reason: AudienceMismatch, Message: fmt.Sprintf("poll is restricted to committee %q", poll.TargetCommittee)}
	}

	if !poll.AllowMultipleSubmissions {
		for _, p := range priors {
			if nonce != "" && p.Nonce == nonce {
				continue
			}
			if id.LoggedIn && id.UserID != "" && p.UserID == id.UserID {
				return &Rejection{Reason: DuplicateSubmission, Message: "this account already submitted"}
			}
			if poll.IPLock && id.IP != "" && p.IP == id.IP {
				return &Rejection{Reason: DuplicateSubmission, Message: "a submission from this address already exists"}
			}
			if poll.DeviceLock && id.DeviceID != "" && p.DeviceID == id.DeviceID {
				return &Rejection{Reason: DuplicateSubmission, Message: "a submission from this device already exists"}
			}
		}
	}

	return nil
}

// DedupKey derives the key the persistence layer enforces uniqueness on.
// Precedence: account, then locked ip, then locked device. Polls allowing
// multiple submissions fall through to the nonce, which makes every
// submission unique while keeping retries idempotent.
func DedupKey(poll *model.Poll, id Identity, nonce string) string {
	if !poll.AllowMultipleSubmissions {
		if id.LoggedIn && id.UserID != "" {
			return "user:" + id.UserID
		}
		if poll.IPLock && id.IP != "" {
			return "ip:" + id.IP
		}
		if poll.DeviceLock && id.DeviceID != "" {
			return "device:" + id.DeviceID
		}
	}
	return "nonce:" + nonce
}

// BuildResponse assembles the persistable response after Evaluate has
// passed. Identity fields are stripped entirely on anonymous polls.
func BuildResponse(poll *model.Poll, id Identity, answers map[uint]model.AnswerValue, nonce string, completionSecs int, flagged, forced bool, now time.Time) model.Response {
	resp := model.Response{
		ID:                 uuid.NewString(),
		PollID:             poll.ID,
		IP:                 id.IP,
		DeviceID:           id.DeviceID,
		DedupKey:           DedupKey(poll, id, nonce),
		Nonce:              nonce,
		SubmittedAt:        now,
		CompletionTimeSecs: completionSecs,
		FlaggedForReview:   flagged,
		ForcedByTimer:      forced,
	}

	if !poll.AnonymousResponses && id.LoggedIn {
		resp.UserID = &id.UserID
		resp.UserName = &id.UserName
		resp.UserRole = &id.UserRole
		resp.UserCommittee = &id.UserCommittee
	}

	for qid, v := range answers {
		if v.IsZero() {
			continue
		}
		resp.Answers = append(resp.Answers, model.Answer{QuestionID: qid, Value: v})
	}

	return resp
}
