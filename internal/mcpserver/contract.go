package mcpserver

// TaskUsageContract explains to LLM consumers how task properties are read
// and written through the Ansuz tools.
const TaskUsageContract = `# Ansuz Task Contract

Tasks live in an external database. Its columns ("properties") are described
by the ` + "`describe_schema`" + ` tool and the ` + "`ansuz://schema`" + ` resource. Call one of
them before writing.

## Reading

Every task has:

- ` + "`id`" + `: opaque identifier, used by update_task and archive_task.
- ` + "`title`" + `: the title property's text, "Untitled" when empty.
- ` + "`completed`" + `: derived from the first checkbox or status property.
- ` + "`properties`" + `: every property by name. Text is a string, select and status
  are an option name or null, multi-select is a list of names, checkbox is a
  boolean, date is the start date string, number is a number.

## Writing

Pass ` + "`properties`" + ` as an object keyed by property name.

1. The title property is required on create_task.
2. Unknown property names are ignored, not rejected.
3. Empty strings are ignored, except for the title.
4. Multi-select accepts a list or a single name.
5. Status names match the declared options ignoring case. A name that matches
   no option is replaced by the first declared option.
6. To mark a task done or not done, pass ` + "`completed`" + ` instead of guessing the
   status name. It picks an option named done/complete/completed, or the
   first other option when un-completing.
7. archive_task moves the task to the store's trash; there is no hard delete.
`
