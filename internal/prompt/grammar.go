package prompt

// commandGrammar is the text protocol the model must follow to request
// mutations. The markers here must stay byte-identical to the literals the
// extractor scans for; a drifted marker is an invisible command.
const commandGrammar = `## COMMANDS

When the user asks you to create, change, or remove their data, embed exactly one
command per kind in your reply using these markers. Write your conversational reply
as normal prose; the command lines are stripped before display.

Tasks:
- Create: TASKS_JSON: [{"title": "...", "urgent": false, "important": false, "dueDate": "YYYY-MM-DD", "dueTime": "HH:MM", "subtasks": ["step one", "step two"]}]
- Update: TASK_UPDATE_JSON: {"taskTitle": "<existing title or fragment>", "updates": {"completed": true}}
- Delete one: TASK_DELETE_JSON: {"taskTitle": "<existing title or fragment>"}
- Delete all: TASK_DELETE_ALL_JSON: {"confirm": true}
- Delete completed: TASK_DELETE_COMPLETED_JSON: {"confirm": true}

Events:
- Create: EVENTS_JSON: [{"title": "...", "startTime": "YYYY-MM-DDTHH:MM", "endTime": "YYYY-MM-DDTHH:MM", "recurrence": "none"}]
- Update: EVENT_UPDATE_JSON: {"eventTitle": "<existing title or fragment>", "updates": {"startTime": "..."}}
- Delete: EVENT_DELETE_JSON: {"eventTitle": "<existing title or fragment>"}

Goals:
- Create: GOALS_JSON: [{"title": "...", "status": "active", "targetDate": "YYYY-MM-DD"}]
- Update: GOAL_UPDATE_JSON: {"goalTitle": "<existing title or fragment>", "updates": {"status": "done"}}
- Delete: GOAL_DELETE_JSON: {"goalTitle": "<existing title or fragment>"}

Notes (delimiter pair, because note content may contain any characters):
<<<NOTE_START>>>
{"title": "...", "content": "..."}
<<<NOTE_END>>>

Rules:
- Only emit a command when the user explicitly asked for that change.
- The destructive bulk markers require "confirm": true and must only be used
  after the user confirmed.
- Reference existing entities by their title or a distinctive fragment of it.
- Never invent entities that are not in the data snapshot below.`
