// Package scraper resolves crawl ids to display names by fetching the
// learning portal's public profile page and classifying the response.
//
// The portal serves a different page depending on the account's state:
// a profile card with the person's name, a localized error banner
// (access restricted, account deleted, id not allocated), or an empty
// shell. Resolve maps every one of these to a model.ResolutionOutcome
// and never returns an error; transport and parse failures become
// OtherError outcomes so one bad page cannot abort a crawl on its own.
package scraper
