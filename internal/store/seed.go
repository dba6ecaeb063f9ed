package store

import (
	"context"
	"fmt"
	"time"

	"github.com/eldtechnologies/omnidesk/internal/models"
)

// SeedAdmin is the operator created by Seed.
const (
	SeedAdminEmail = "admin@omnidesk.local"
	SeedAdminName  = "Console Admin"
	SeedAdminRole  = "admin"
)

type seedThread struct {
	conv     models.Conversation
	messages []seedMessage
}

type seedMessage struct {
	body      string
	direction string
	ago       time.Duration
}

// Seed creates the admin user (if missing), binds every channel account and
// adds a few sample threads. It is safe to run on every start.
func Seed(ctx context.Context, ds DataStore, adminPasswordHash string) error {
	existing, err := ds.GetUserByEmail(ctx, SeedAdminEmail)
	if err != nil {
		return fmt.Errorf("seed: lookup admin: %w", err)
	}
	if existing == nil {
		if _, err := ds.CreateUser(ctx, SeedAdminEmail, SeedAdminName, SeedAdminRole, adminPasswordHash); err != nil {
			return fmt.Errorf("seed: create admin: %w", err)
		}
	}

	channels := []models.Channel{
		{Platform: models.PlatformWhatsApp, AccountID: "109876543210", AccountName: "Omnidesk Support", Connected: true, AutoReply: true},
		{Platform: models.PlatformInstagram, AccountID: "17841400000000000", AccountName: "omnidesk.shop", Connected: true},
		{Platform: models.PlatformMessenger, AccountID: "100200300400", AccountName: "Omnidesk Page", Connected: false},
	}
	for i := range channels {
		if err := ds.UpsertChannel(ctx, &channels[i]); err != nil {
			return fmt.Errorf("seed: channel %s: %w", channels[i].Platform, err)
		}
	}

	now := time.Now()
	threads := []seedThread{
		{
			conv: models.Conversation{Platform: models.PlatformWhatsApp, CustomerID: "+5491155550001", Name: "Lucía Gómez", Active: true, Automation: true},
			messages: []seedMessage{
				{"Hola, ¿tienen turnos para el sábado?", models.DirectionInbound, 50 * time.Minute},
				{"¡Hola Lucía! Sí, a las 10 y a las 15.", models.DirectionOutbound, 48 * time.Minute},
				{"Perfecto, el de las 10 por favor", models.DirectionInbound, 45 * time.Minute},
			},
		},
		{
			conv: models.Conversation{Platform: models.PlatformWhatsApp, CustomerID: "+14155550002", Active: true},
			messages: []seedMessage{
				{"Is the store open today?", models.DirectionInbound, 3 * time.Hour},
			},
		},
		{
			conv: models.Conversation{Platform: models.PlatformInstagram, CustomerID: "5550003", Name: "Marco Rossi", Handle: "marco.rossi", Active: true},
			messages: []seedMessage{
				{"Do you ship to Italy?", models.DirectionInbound, 26 * time.Hour},
				{"We do! Delivery takes 5-7 days.", models.DirectionOutbound, 25 * time.Hour},
			},
		},
		{
			conv: models.Conversation{Platform: models.PlatformMessenger, CustomerID: "7000000000000004", Name: "Ana Silva", Active: true, Automation: true},
			messages: []seedMessage{
				{"Quero remarcar minha reserva", models.DirectionInbound, 2 * time.Hour},
				{"Claro! Para qual dia?", models.DirectionOutbound, 110 * time.Minute},
			},
		},
	}

	for _, th := range threads {
		conv, err := ds.GetConversation(ctx, th.conv.Platform, th.conv.CustomerID)
		if err != nil {
			return fmt.Errorf("seed: lookup conversation: %w", err)
		}
		if conv != nil {
			continue
		}

		c := th.conv
		c.CreatedAt = now.Add(-th.messages[0].ago).UTC()
		if err := ds.UpsertConversation(ctx, &c); err != nil {
			return fmt.Errorf("seed: conversation %s: %w", c.CustomerID, err)
		}
		for _, sm := range th.messages {
			msg := &models.Message{
				Platform:   c.Platform,
				CustomerID: c.CustomerID,
				Body:       sm.body,
				Direction:  sm.direction,
				Timestamp:  now.Add(-sm.ago).UnixMilli(),
			}
			if err := ds.AddMessage(ctx, msg); err != nil {
				return fmt.Errorf("seed: message: %w", err)
			}
		}
	}
	return nil
}
