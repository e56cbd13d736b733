// Package gateway implements the purchase-gated account flow: a purchase
// record (from the payment webhook or a simulation) entitles an email to set
// a password once, after which the user logs in and completes onboarding.
//
// Every operation normalizes the email before touching a store. Client-safe
// messages travel in identity.OpError.Msg; anything else is an internal fault.
package gateway
