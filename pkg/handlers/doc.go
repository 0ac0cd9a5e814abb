/*
Package handlers provides the default node handlers behind journey steps.

Each handler receives a private copy of the session state and returns the
replacement. Handlers only record structured notifications; wording and delivery
belong to the notification channel.
*/
package handlers
