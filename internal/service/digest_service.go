package service

import (
	"context"
	"fmt"
	"html"
	"sort"
	"strings"
	"time"

	"portfolio/internal/model"
	"portfolio/internal/repository"
)

// DigestService builds the owner's daily summary of goals and inbound messages.
type DigestService struct {
	goalRepo    *repository.GoalRepository
	messageRepo *repository.MessageRepository
}

func NewDigestService(goalRepo *repository.GoalRepository, messageRepo *repository.MessageRepository) *DigestService {
	return &DigestService{goalRepo: goalRepo, messageRepo: messageRepo}
}

func (s *DigestService) DailySummary(ctx context.Context, now time.Time) (string, error) {
	goals, err := s.goalRepo.ListActive(ctx)
	if err != nil {
		return "", err
	}
	messages, err := s.messageRepo.ListContactsSince(ctx, now.Add(-24*time.Hour))
	if err != nil {
		return "", err
	}

	sort.SliceStable(goals, func(i, j int) bool {
		switch {
		case goals[i].TargetDate == nil && goals[j].TargetDate == nil:
			return goals[i].CreatedAt.After(goals[j].CreatedAt)
		case goals[i].TargetDate == nil:
			return false
		case goals[j].TargetDate == nil:
			return true
		default:
			return goals[i].TargetDate.Before(*goals[j].TargetDate)
		}
	})

	var builder strings.Builder
	builder.WriteString("📋 <b>Daily digest</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("2006-01-02")))

	builder.WriteString("🎯 <b>Active goals</b>\n")
	if len(goals) == 0 {
		builder.WriteString("— no active goals\n")
	} else {
		for _, goal := range goals {
			builder.WriteString(formatGoal(goal, now))
		}
	}

	builder.WriteString("\n📬 <b>Messages (24h)</b>\n")
	if len(messages) == 0 {
		builder.WriteString("— no new messages\n")
	} else {
		for _, msg := range messages {
			builder.WriteString(formatMessage(msg))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatGoal(goal model.Goal, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if goal.TargetDate != nil {
		d := goal.TargetDate.In(now.Location())
		switch {
		case now.After(d):
			icon = "⚠️"
		case d.Sub(now) <= 48*time.Hour:
			icon = "⏳"
		}
	}

	title := html.EscapeString(strings.TrimSpace(goal.Title))
	sb.WriteString(fmt.Sprintf("%s %s · %d%%", icon, title, goal.Progress))

	if goal.Category != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(goal.Category)))
	}

	if goal.TargetDate != nil {
		d := goal.TargetDate.In(now.Location())
		if now.After(d) {
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · <b>overdue</b>", d.Format("2006-01-02")))
		} else {
			daysLeft := int(d.Sub(now).Hours()/24) + 1
			sb.WriteString(fmt.Sprintf("\n   ⏰ due %s · ≈%d days left", d.Format("2006-01-02"), daysLeft))
		}
	}

	if total := len(goal.Milestones); total > 0 {
		done := 0
		for _, m := range goal.Milestones {
			if m.Completed {
				done++
			}
		}
		sb.WriteString(fmt.Sprintf("\n   ✅ %d/%d milestones", done, total))
	}

	sb.WriteByte('\n')
	return sb.String()
}

func formatMessage(msg model.ContactMessage) string {
	line := fmt.Sprintf("✉️ %s &lt;%s&gt;: %s", html.EscapeString(msg.Name), html.EscapeString(msg.Email),
		html.EscapeString(msg.Subject))
	if !msg.Delivered {
		line += " <i>(not delivered)</i>"
	}
	return line + "\n"
}
