package main

// Sample is one benchmark input. For revision samples Text is the text to
// revise; for coding samples it is the task and Snippet the optional code.
type Sample struct {
	Name string
	// Language is sent as-is; empty means the server default (English).
	Language string
	Text     string
	Snippet  string
}

// Samples are work notes of increasing length written with typical
// second-language mistakes. They drive the default timing run against
// /api/revise.
var Samples = []Sample{
	{
		Name: "tiny",
		Text: "Could you merge my branch today? The tests passes locally but CI was red one time yesterday.",
	},
	{
		Name: "short",
		Text: `Hello all,

The new release of the billing page is live since this morning. Customers can now download invoices in PDF, which was the most asked feature in last survey. We noticed that the export take around six seconds for accounts with many invoices, this is more slow than we wanted. I will open a ticket to investigate the query and share results tomorrow.

Regards,
Ana`,
	},
	{
		Name: "medium",
		Text: `Hi Daniel,

About the question you did in the retro, I checked why the mobile app shows an empty screen after login for some users. It happens only when the user have more than one organization and the last one selected was deleted by an admin. The app try to load the deleted organization, receive a 404 and never fallback to the first available one.

The fix is not complicated: when the stored organization is not found, we should clear it and choose the first organization from the list. I also want to add a small banner that explain to the user why the selection changed, because otherwise they can be confused.

I estimate two days including tests. If you are agree, I start tomorrow and we can include it in next week release.

Thanks,
Ana`,
	},
	{
		Name: "long",
		Text: `Subject: Proposal to replace our job scheduler

Hi team,

As many of you already know, the cron-based scheduler that run our nightly jobs is giving us problems since several months. Last week we had three incidents where the report generation job was executed two times in parallel, because the previous run didn't finished before the next one started. Customers received duplicated emails and one of them complained directly to the CEO.

The root cause is that each job is triggered by a crontab entry on two different machines, and there is no coordination between them. We added the second machine last year for redundancy, but nobody updated the jobs to take a lock.

I evaluated three alternatives:

1. Add a database lock to every job. This is the fastest change, maybe one day of work, but each new job must remember to take the lock, and we will make the same mistake again sooner or later.

2. Move the jobs to the queue we already use for webhooks. The queue garantee that a message is processed by only one worker, and we get retries and visibility in the dashboard for free. The migration is around one week because every job need to be adapted to be idempotent.

3. Adopt a dedicated scheduler service. It is the most complete solution but also add a new component that we need to operate and monitor, and honestly our team is already stretched.

My recommendation is option 2. It reuse infrastructure we know well and it forces us to make the jobs idempotent, which is a good thing independently of the scheduler.

Please send me your comments until Wednesday so I can present the plan in the architecture meeting on Thursday.

Best,
Ana`,
	},
	{
		Name: "max",
		// Exceeds the browser extension's 1500 character limit; stress only.
		Text: `Subject: Summary of the database failover on March 3rd

Dear colleagues,

This message summarize the failover of our primary database that happened on March 3rd between 08:10 and 09:05 UTC. I will describe what happened, what was the impact for customers, how we recovered and which actions we will take so it does not repeat.

1. Summary

At 08:10 UTC the primary database host lost its network interface after a scheduled kernel update was applied automatically. The replica was promoted by the orchestration tool after 90 seconds, as configured, but the application servers kept connecting to the old address because the connection pool did not refreshed the DNS record. For 55 minutes around 40% of requests failed with timeouts.

2. Timeline

- 08:02 UTC: The automatic update started on the primary host.
- 08:10 UTC: The host rebooted and came back without network because the new kernel missed a driver.
- 08:11 UTC: The orchestration tool promoted the replica and updated the DNS record.
- 08:14 UTC: The error rate alert fired and the on-call engineer was paged.
- 08:25 UTC: We confirmed the new primary was healthy and that only some application servers were failing.
- 08:40 UTC: We identified that the failing servers had long-lived connections to the old address.
- 08:50 UTC: We restarted the application servers one by one.
- 09:05 UTC: The error rate returned to normal levels.

3. Root cause

There is two independent problems. First, automatic kernel updates were enabled on database hosts, which was never intended; the setting was inherited from the generic base image. Second, our connection pool resolves the database hostname only when it opens a connection and it keeps idle connections open for up to one hour, so a DNS change is not observed until the connections are recycled.

4. Impact

- Around 40% of API requests failed during 55 minutes.
- No data was lost, since the replica was synchronous.
- Support received 120 tickets, all answered the same day.

5. Actions

a) This week: disable automatic updates on database hosts and add a check in the provisioning pipeline that fail if they are enabled.
b) This month: configure the connection pool with a maximum connection lifetime of five minutes and test a failover in staging with real traffic.
c) This quarter: run a failover drill every month and document the manual steps in the runbook.

I want to thank everyone who joined the incident call. A blameless review is scheduled on Friday at 14:00 UTC; please add your questions to the shared document before it.

Kind regards,
Ana
Platform team`,
	},
}

// QualitySamples each target one class of writing mistake. They are used by
// -quality to compare model output side by side.
var QualitySamples = []Sample{
	{
		Name: "homophones",
		// its/it's, their/there, lose/loose
		Text: "Its important that the team checks there dashboards every morning, otherwise we could loose track of the alerts that fired overnight.",
	},
	{
		Name: "technical",
		// principal/principle, compliment/complement, jargon must survive
		Text: "The principle reason for the latency spike was a missing index on the orders table. Adding a covering index will compliment the query cache and should reduce the p99 from 800ms to under 100ms without changing the ORM mappings.",
	},
	{
		Name: "run-on",
		// one long sentence, gonna, informal register
		Text: "so the vendor sent the new contract last night and honestly its gonna be hard to accept it because they increased the price by thirty percent and they also removed the clause about support response times which was the main reason we picked them in the first place so I think we should push back before legal signs anything.",
	},
	{
		Name: "prepositions",
		// depend of, discuss about, arrive to, agree on vs agree with
		Text: "The final schedule depends of the budget approval. We discussed about it in the meeting, but we did not arrive to a conclusion because the finance team does not agree on our estimates.",
	},
	{
		Name:     "pt-email",
		Language: "Portuguese",
		// houveram/houve, a nível de, concordância verbal, mas/mais
		Text: "Pessoal, houveram alguns problemas a nível de infraestrutura ontem e os relatórios que o time enviaram ficaram incompletos. Precisamos de mas tempo para revisar tudo antes de mandar para o cliente.",
	},
	{
		Name: "verbose",
		// redundancy, passive voice, "in order to", tone
		Text: "At this point in time I would like to take the opportunity to inform you that a decision has been made by the management team in order to postpone the launch, due to the fact that a number of outstanding issues that were identified during testing have not yet been fully resolved by the engineering department.",
	},
}

// CodeSamples drive -mode=code against /api/code.
var CodeSamples = []Sample{
	{
		Name: "explain",
		Text: "Explain what this function does and point out any bug.",
		Snippet: `func last(xs []int) int {
	return xs[len(xs)]
}`,
	},
	{
		Name: "refactor",
		Text: "Rewrite this loop using strings.Builder.",
		Snippet: `s := ""
for _, w := range words {
	s += w + " "
}`,
	},
	{
		Name: "no-snippet",
		Text: "Write a Go function that reverses a string by runes.",
	},
	{
		Name: "review",
		Text: "Review this HTTP handler for error handling problems.",
		Snippet: `func get(w http.ResponseWriter, r *http.Request) {
	data, _ := os.ReadFile(r.URL.Query().Get("f"))
	w.Write(data)
}`,
	},
}
