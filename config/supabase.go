package config

import (
	"fmt"

	supa "github.com/supabase-community/supabase-go"
)

// NewSupabaseClient initializes the Supabase client from the loaded settings.
func NewSupabaseClient(s *Settings) (*supa.Client, error) {
	client, err := supa.NewClient(s.SupabaseURL, s.SupabaseKey, nil)
	if err != nil {
		return nil, fmt.Errorf("initializing Supabase client: %w", err)
	}
	return client, nil
}
